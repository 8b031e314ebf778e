// Package engine runs detection passes: snapshotting open records, scoring
// candidate pairs, grouping auto-merge matches transitively, and committing
// merge outcomes through the store.
package engine
