// Package idempotency derives stable Stream Load labels so that a retried
// or re-run chunk submission is recognized by StarRocks as the same load
// rather than a duplicate, generalizing the teacher's httpds.HashString /
// SafeFilenameFromURL idiom (deterministic identifiers derived from stable
// inputs) from URLs to load-chunk tuples.
package idempotency

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Label derives a Stream Load label from the tuple that uniquely identifies
// one chunk submission: tenant slug, target table, chunk ordinal, and the
// wall-clock date the job runs on (spec.md §4.5.4). Re-submitting the same
// tuple — e.g. on a retry after a timeout — produces the same label, which
// is what lets "Label Already Exists" be treated as idempotent success
// rather than a hard failure.
func Label(tenantSlug, table string, chunkOrdinal int, wallClockDate string) string {
	raw := fmt.Sprintf("%s|%s|%d|%s", tenantSlug, table, chunkOrdinal, wallClockDate)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s_%s_%d_%s", tenantSlug, table, chunkOrdinal, hex.EncodeToString(sum[:])[:12])
}

// ExpectedLabel re-derives the label for a (tenantSlug, table, chunkOrdinal,
// wallClockDate) tuple; it returns exactly what Label returns. Label folds
// its inputs through SHA-1, so the tuple cannot be recovered from a label:
// matching a label to a tuple means re-deriving it with this function. The
// Stream Load client does not call it; it treats a "Label Already Exists"
// response to its own label as success.
func ExpectedLabel(tenantSlug, table string, chunkOrdinal int, wallClockDate string) string {
	return Label(tenantSlug, table, chunkOrdinal, wallClockDate)
}
