package vecstore

import (
	"context"
	"testing"

	"github.com/docuchat/backend/internal/rag"
)

func TestStore_SeesCollectionsWrittenByAnotherInstance(t *testing.T) {
	dir := t.TempDir()

	// the reader opens the directory first, like the API server booting
	// before any ingestion job has run in the worker
	reader, err := New(dir)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	writer, err := New(dir)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}

	records := []rag.Record{{
		ID:     "acme/chat_room_x/a.pdf#0",
		Text:   "alpha content",
		Vector: []float32{0.6, 0.8},
		Metadata: map[string]string{
			"source": "acme/chat_room_x/a.pdf",
			"chunk":  "0",
		},
	}}
	if err := writer.Upsert(context.Background(), "chat_room_x", records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := reader.Exists(context.Background(), "chat_room_x")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("collection ingested through another instance is not visible")
	}

	got, err := reader.Query(context.Background(), "chat_room_x", []float32{0.6, 0.8}, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Text != "alpha content" {
		t.Fatalf("unexpected query result: %+v", got)
	}
}

func TestStore_MissingCollection(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ok, err := s.Exists(context.Background(), "chat_room_nope")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("missing collection reported as existing")
	}

	got, err := s.Query(context.Background(), "chat_room_nope", []float32{1}, 4)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
