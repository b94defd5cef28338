// Package queue defines the durable job record for content-generation work
// and the rules for moving it through the pipeline.
//
// A Job is created by NewJob with explicit defaults, persisted as part of a
// whole collection through a Repository, and mutated only through the
// transition helpers in this package: ApplyStatus for pipeline progress,
// Cancel and Retry for the two dashboard actions, and ApplyNarration and
// SetNarrationMode for the nested narration workflow. Every enum field is a
// closed string type validated at creation, on every transition, and again
// when records are read back from disk.
//
// Treat this package as the single source of truth for queue semantics; new
// statuses or fields must be added to the transition tables and to Validate.
package queue
