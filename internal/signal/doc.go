// Package signal turns raw record fields into the comparable forms the
// scorer consumes.
//
// Every function here is a pure, stateless transform over a single record:
// postal extraction with explicit-before-estimated precedence, subject and
// level set normalization, rate passthrough. Absent fields report !ok rather
// than erroring; present-but-invalid values are skipped and reported back so
// callers can log them for upstream data-quality visibility.
package signal
