// Package enricher annotates chunks with structural analysis and a
// semantic score.
//
// Enrichment runs on a bounded worker pool: chunk indexes flow through a
// fixed-capacity channel so a large file cannot queue unbounded work, and
// results land back in input order. A panic while analyzing one chunk
// degrades that chunk to a scored copy of its unenriched form instead of
// failing the batch.
//
// The semantic score combines a per-type base weight, a bonus for content
// that fits the configured size band, and a capped complexity bonus,
// clamped to 1.0.
package enricher
