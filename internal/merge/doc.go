// Package merge turns classified duplicate decisions into canonical groups.
//
// A disjoint-set structure accumulates the pairwise auto-merge decisions so
// transitively linked records land in one group even when some member pairs
// were never directly compared. The Policy then resolves each canonical
// field independently from the contributing records — earliest sighting for
// published_at, highest extraction quality for locator and subject fields,
// interval union for rates — and records which member every chosen value
// came from. Given the same members, Merge always produces the same
// canonical fields, which is what makes re-running the engine idempotent.
package merge
