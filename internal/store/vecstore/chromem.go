package vecstore

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/docuchat/backend/internal/rag"
	"github.com/philippgille/chromem-go"
)

// Store implements rag.VectorStore on top of a persistent chromem-go DB.
// Every chat room gets its own collection; documents carry precomputed
// embeddings so chromem never calls an embedding func of its own.
//
// chromem is embedded: a process loads the directory into memory when it
// opens the DB. The server and the worker are separate processes over the
// same directory, so a collection the worker ingested is not in the server's
// in-memory DB. On a collection miss the store re-reads the directory before
// reporting the collection absent.
type Store struct {
	dir string

	mu sync.Mutex
	db *chromem.DB
}

func New(dir string) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	return &Store{dir: dir, db: db}, nil
}

// getCollection returns the named collection, re-reading the directory on a
// miss in case another process created the collection after this DB was
// opened.
func (s *Store) getCollection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col := s.db.GetCollection(name, nil); col != nil {
		return col, nil
	}

	db, err := chromem.NewPersistentDB(s.dir, false)
	if err != nil {
		return nil, fmt.Errorf("reload vector db: %w", err)
	}
	s.db = db
	return s.db.GetCollection(name, nil), nil
}

func (s *Store) Exists(ctx context.Context, collection string) (bool, error) {
	_ = ctx
	col, err := s.getCollection(collection)
	if err != nil {
		return false, err
	}
	return col != nil, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, records []rag.Record) error {
	s.mu.Lock()
	col, err := s.db.GetOrCreateCollection(collection, nil, nil)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("get/create collection %s: %w", collection, err)
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Embedding: r.Vector,
			Metadata:  r.Metadata,
		})
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents to %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, k int) ([]rag.Record, error) {
	col, err := s.getCollection(collection)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}

	records := make([]rag.Record, 0, len(results))
	for _, r := range results {
		records = append(records, rag.Record{
			ID:       r.ID,
			Text:     r.Content,
			Vector:   r.Embedding,
			Metadata: r.Metadata,
		})
	}
	return records, nil
}
