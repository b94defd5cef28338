// Package archive holds terminal jobs removed from the active queue.
//
// Entries are immutable snapshots of a job plus the time it was archived.
// The archive is an independent store from the active queue with its own
// backing file and its own locks, queryable through Search without touching
// active-queue performance.
package archive
