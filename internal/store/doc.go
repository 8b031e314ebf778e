// Package store manages record and merge-group persistence backed by SQLite.
//
// It implements the contract the consolidation engine needs from a
// persistence collaborator: bulk reads of open records, and an
// all-or-nothing group commit that attaches a duplicate group to every
// member record in one transaction. Each record row carries a version
// counter for optimistic concurrency; a commit whose snapshot went stale
// fails with a store-conflict error and touches nothing, so a group is
// either fully applied or absent. Review pairs and per-pass statistics live
// here too so operators can inspect engine output after the fact.
package store
