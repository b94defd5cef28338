// Package api is the operation surface of the job queue.
//
// Service wires the stores, the state machine helpers, and the change
// notifier together. Every mutation is one serialized read-mutate-rewrite
// sequence against the active store; the notifier fires only after the
// rewrite has committed, so subscribers never observe a change that was not
// durably written. The active and archive stores are serialized
// independently.
package api
