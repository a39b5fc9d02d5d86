// Package sources retrieves tracker lists from remote text sources and
// aggregates them into a deduplicated, sorted endpoint set.
//
// Each source is a plain HTTP(S) URL serving newline-delimited endpoint
// strings. Fetches run through a bounded worker pool and fail independently:
// one broken source never affects the others' contributions. Aggregation is
// commutative and idempotent, so re-running on identical inputs yields an
// identical sorted list.
package sources
