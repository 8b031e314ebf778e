// Package services provides shared error classification and context plumbing
// for the consolidation engine.
//
// Components wrap failures with a sentinel marker from this package so
// callers can classify them with errors.Is: configuration problems abort
// startup, store conflicts trigger bounded retries, and everything else is
// treated as transient. Context helpers carry pass and record identifiers so
// structured logs can be correlated without threading IDs through every
// signature.
package services
