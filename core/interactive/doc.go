// Package interactive attaches stateful paginators and selections to sent
// chat messages and routes reaction, component and follow-up text events to
// the session that owns the message.
//
// A Registry is the single subscriber to the platform event stream. Sessions
// are displayed through it, mutated only inside their own callback, and
// deregistered on any terminal transition: stop, cancel, timeout or (for
// selections) success. Sessions live in memory only.
package interactive
