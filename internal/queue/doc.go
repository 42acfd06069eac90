// Package queue provides the FIFO used between the gateway worker and main
// application logic.
//
// A Queue is unbounded and never blocks. There is no wake-up signal: each side
// polls the queues it consumes once per processing cycle, so end-to-end latency
// is bounded by the poll interval each side picks.
//
// Ordering holds within one queue only. Items pushed by one producer come out in
// that producer's push order; nothing is lost or duplicated.
package queue
