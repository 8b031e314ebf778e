// Package match decides which record pairs are worth comparing and how
// similar they are.
//
// The Selector prunes the open-record set down to candidate pairs (never the
// same source, published within a configurable window, bucketed by postal
// district or subject token so a pass stays near-linear). The Scorer sums
// independent per-signal contributions from a configurable weight table and
// clamps the total into [0, 100]; a signal absent on either side contributes
// nothing and is never penalized. The Classifier maps scores onto confidence
// tiers with inclusive lower bounds.
//
// Raw totals routinely exceed 100 for strong matches and saturate at the
// clamp. That additive-then-clamp structure is deliberate and preserved as
// is; whether several stacked medium signals should reach the high tier this
// easily is a known tuning risk, so the pre-clamp total is kept on the
// Breakdown and logged at debug level rather than renormalized away.
package match
