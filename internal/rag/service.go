package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docuchat/backend/internal/chatroom"
	"gorm.io/gorm"
)

// Collaborator contracts. Concrete implementations: storage.Client,
// redisstore.Store, Loader and OpenAIClient from this package.

type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	SignedURLs(ctx context.Context, paths []string, ttl time.Duration) ([]string, error)
}

type DocumentLoader interface {
	Load(ctx context.Context, url string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, apiKey string, texts []string) ([][]float32, error)
}

type Completer interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

// Locker is the per-chat-room mutual-exclusion gate for ingestion runs.
type Locker interface {
	AcquireIngestLock(ctx context.Context, chatRoomID string, ttl time.Duration) (bool, error)
	ReleaseIngestLock(ctx context.Context, chatRoomID string) error
}

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	RetrievalK   int
	SignedURLTTL time.Duration
	LockTTL      time.Duration
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = DefaultChunkOverlap
	}
	if o.RetrievalK <= 0 {
		o.RetrievalK = 4
	}
	if o.SignedURLTTL <= 0 {
		o.SignedURLTTL = 5 * time.Minute
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 10 * time.Minute
	}
	return o
}

// Service exposes the two operations the handlers call: Ingest and Answer.
type Service struct {
	rooms     *chatroom.Repo
	readiness *chatroom.Service
	objects   ObjectStore
	loader    DocumentLoader
	embedder  Embedder
	completer Completer
	vectors   VectorStore
	locks     Locker
	opts      Options
}

func NewService(
	rooms *chatroom.Repo,
	readiness *chatroom.Service,
	objects ObjectStore,
	loader DocumentLoader,
	embedder Embedder,
	completer Completer,
	vectors VectorStore,
	locks Locker,
	opts Options,
) *Service {
	return &Service{
		rooms:     rooms,
		readiness: readiness,
		objects:   objects,
		loader:    loader,
		embedder:  embedder,
		completer: completer,
		vectors:   vectors,
		locks:     locks,
		opts:      opts.withDefaults(),
	}
}

// roomContext resolves the chat room, its organization name and the tenant
// API key. The credential check happens here, before any network call.
func (s *Service) roomContext(ctx context.Context, chatRoomID string) (*chatroom.ChatRoom, string, error) {
	room, err := s.rooms.GetWithOrganization(ctx, chatRoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", gorm.ErrRecordNotFound
		}
		return nil, "", fmt.Errorf("load chat room %s: %w", chatRoomID, err)
	}

	key := room.Organization.OpenAIAPIKey
	if key == nil || *key == "" {
		return nil, "", ErrMissingAPIKey
	}
	return room, *key, nil
}
