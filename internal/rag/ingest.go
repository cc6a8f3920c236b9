package rag

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/docuchat/backend/internal/chatroom"
)

// Ingest runs the full ingestion pipeline for one chat room:
// list files -> signed URLs -> load + chunk per file -> embed -> upsert.
// Idempotent: when the room's collection already exists the run is a no-op.
// A single file failing to fetch or extract is logged and skipped; the run
// aborts only when no file yields any text.
func (s *Service) Ingest(ctx context.Context, chatRoomID string) error {
	room, apiKey, err := s.roomContext(ctx, chatRoomID)
	if err != nil {
		return err
	}
	collection := chatroom.CollectionName(room.ID)

	acquired, err := s.locks.AcquireIngestLock(ctx, room.ID, s.opts.LockTTL)
	if err != nil {
		return fmt.Errorf("ingest room=%s: acquire lock: %w", room.ID, err)
	}
	if !acquired {
		return ErrIngestRunning
	}
	defer func() {
		if err := s.locks.ReleaseIngestLock(context.WithoutCancel(ctx), room.ID); err != nil {
			log.Printf("ingest room=%s release lock failed: %v", room.ID, err)
		}
	}()

	exists, err := s.vectors.Exists(ctx, collection)
	if err != nil {
		return fmt.Errorf("ingest room=%s: check collection: %w", room.ID, err)
	}
	if exists {
		log.Printf("ingest room=%s collection exists, skipping", room.ID)
		return nil
	}

	prefix := room.Organization.Name + "/" + collection
	names, err := s.objects.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("ingest room=%s: list files: %w", room.ID, err)
	}
	if len(names) == 0 {
		return ErrNoFiles
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = prefix + "/" + name
	}
	urls, err := s.objects.SignedURLs(ctx, paths, s.opts.SignedURLTTL)
	if err != nil {
		return fmt.Errorf("ingest room=%s: sign urls: %w", room.ID, err)
	}
	if len(urls) != len(paths) {
		return fmt.Errorf("ingest room=%s: expected %d signed urls, got %d", room.ID, len(paths), len(urls))
	}

	// Load and chunk files concurrently. Results are slotted by file index
	// so chunk order within a file is preserved; order across files does
	// not matter but stays deterministic.
	perFile := make([][]string, len(urls))
	var wg sync.WaitGroup
	for i := range urls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, err := s.loader.Load(ctx, urls[i])
			if err != nil {
				log.Printf("ingest room=%s file=%s skipped: %v", room.ID, names[i], err)
				return
			}
			perFile[i] = Chunk(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
		}(i)
	}
	wg.Wait()

	var records []Record
	for i, chunks := range perFile {
		for j, text := range chunks {
			records = append(records, Record{
				ID:   fmt.Sprintf("%s#%d", paths[i], j),
				Text: text,
				Metadata: map[string]string{
					"source": paths[i],
					"chunk":  strconv.Itoa(j),
				},
			})
		}
	}
	if len(records) == 0 {
		return fmt.Errorf("ingest room=%s: %w", room.ID, ErrNoChunks)
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].Text
	}
	vectors, err := s.embedder.Embed(ctx, apiKey, texts)
	if err != nil {
		return fmt.Errorf("ingest room=%s: embed: %w", room.ID, err)
	}
	for i := range records {
		records[i].Vector = vectors[i]
	}

	// Single upsert after all chunks are assembled; nothing partial is
	// ever committed.
	if err := s.vectors.Upsert(ctx, collection, records); err != nil {
		return fmt.Errorf("ingest room=%s: upsert: %w", room.ID, err)
	}

	if err := s.readiness.MarkIngested(ctx, room.ID); err != nil {
		return fmt.Errorf("ingest room=%s: mark ready: %w", room.ID, err)
	}

	log.Printf("ingest room=%s done files=%d chunks=%d", room.ID, len(names), len(records))
	return nil
}
