// Package daemon runs the studioq service process. It combines the HTTP API,
// the archive retention sweep, and startup reconciliation into a single
// lifecycle with flock-based locking to prevent multiple writers on the same
// data directory.
package daemon
