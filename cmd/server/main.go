package main

import (
	"log"
	"os"
	"time"

	"github.com/docuchat/backend/internal/chatroom"
	"github.com/docuchat/backend/internal/config"
	"github.com/docuchat/backend/internal/db"
	"github.com/docuchat/backend/internal/httpapi"
	"github.com/docuchat/backend/internal/httpapi/handlers"
	"github.com/docuchat/backend/internal/models"
	"github.com/docuchat/backend/internal/rag"
	"github.com/docuchat/backend/internal/storage"
	"github.com/docuchat/backend/internal/store/rabbitmq"
	"github.com/docuchat/backend/internal/store/redisstore"
	"github.com/docuchat/backend/internal/store/vecstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&chatroom.ChatRoom{},
		&chatroom.IngestJob{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	repo := chatroom.NewRepo(gdb)
	rooms := chatroom.NewService(repo)

	vectors, err := vecstore.New(cfg.VectorDir)
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}

	objects := storage.NewClient(cfg.StorageURL, cfg.StorageServiceKey, cfg.StorageBucket)
	openai := rag.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.EmbeddingModel, cfg.ChatModel)

	ragSvc := rag.NewService(repo, rooms, objects, rag.NewLoader(), openai, openai, vectors, rds, rag.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		RetrievalK:   cfg.RetrievalK,
		SignedURLTTL: time.Duration(cfg.SignedURLTTLSec) * time.Second,
	})

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit publisher: %v", err)
	}
	defer pub.Close()

	h := handlers.NewHandler(gdb, cfg, rds, rooms, ragSvc, objects, pub)
	r := httpapi.NewRouter(cfg, h)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
