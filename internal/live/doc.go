// Package live implements the live-compile session manager.
//
// The manager decides when to compile, which compiler response belongs to
// which request, and how to replay the player's earlier choices after a
// recompile.
//
// ARCHITECTURE:
//
// Single-Owner State:
// Manager holds every piece of session state and is not safe for concurrent
// use. Loop owns a Manager and runs it on one goroutine: timer ticks,
// inbound supervisor messages, and UI calls are queued as jobs and each runs
// to completion before the next starts. Nothing inside a job blocks; sends
// to the supervisor are fire-and-forget.
//
// Event Flow:
//  1. An edit calls SetEdited; ticks check the debounce Scheduler.
//  2. Reload builds a play instruction (dirty files only) and sends it.
//  3. The supervisor streams events tagged with the session id.
//  4. Handle checks the id against the session Registry. Stale events are
//     dropped without any state change, callback, or log line.
//  5. Accepted events clear the busy flag, then update the replay cursor
//     or the issue list, and call the EventSink.
//
// Cancellation is "stop the current session and start a new one". A stop
// request is sent to the supervisor, but events the stopped session already
// had in flight still arrive; the registry is what makes them harmless.
//
// REPLAY:
//
// Every live choice is appended to a choice sequence. After any recompile
// the story restarts and, each time it asks for input, the next recorded
// choice is submitted automatically until the sequence is used up. Only then
// is the player prompted. See replay.go.
package live
