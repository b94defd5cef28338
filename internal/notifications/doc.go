// Package notifications fans out job-change events.
//
// The Registry is the one-way ChangeNotifier surface the queue core emits
// into after every successful commit. It is an explicit object owned by the
// service instance and passed by injection; there is no package-level
// subscriber state. The external notification bus (dashboard fan-out) attaches
// as a listener, as does the optional ntfy push service for terminal jobs.
package notifications
