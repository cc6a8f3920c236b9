package rag

import "context"

// Record is one embedded chunk stored in, or retrieved from, a collection.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// VectorStore is a per-collection vector index. Upsert is additive; the
// ingestion pipeline guards against re-ingestion with Exists, not by
// deduplicating. Query on a missing or empty collection returns an empty
// result, not an error.
type VectorStore interface {
	Exists(ctx context.Context, collection string) (bool, error)
	Upsert(ctx context.Context, collection string, records []Record) error
	Query(ctx context.Context, collection string, vector []float32, k int) ([]Record, error)
}
