// Package command implements the gateway's console commands.
//
// Commands are registered on a Map and dispatched from command lines typed on
// the console. Every command declares a permission; senders lacking it are
// told so and the command is still considered handled.
//
// The stop command announces the shutdown to administrators, records it in
// the audit log and calls the process's ShutdownFunc:
//
//	stop                 stop, no message
//	stop maintenance     stop with message "maintenance"
//	stop force now       restart with message "force"
package command
