// Package record defines the posting record model shared by every stage of
// the consolidation engine.
//
// A record is one structured posting as reported by an upstream source,
// uniquely identified by its (source, external id) pair. Only the status and
// duplicate-group assignment mutate after creation; everything else is fixed
// by the ingestion pipeline that produced the record.
package record
