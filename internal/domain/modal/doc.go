// Package modal serializes user-facing messages so that only one is visible
// at a time.
//
// A message carries text and up to two actions (no / yes). Messages wait in
// FIFO order behind the visible one; a message whose non-empty text equals the
// visible message or one already waiting is dropped.
//
// The queue is not safe for concurrent use; it is owned by the scheduler loop.
package modal
