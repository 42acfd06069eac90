// Package dedupe suppresses repeated events within a time window.
//
// A Cache remembers keys for a fixed TTL and a bounded number of entries.
// Callers ask Seen(key) before acting: the first call in a window returns
// false and marks the key, later calls return true until the window ends.
package dedupe
