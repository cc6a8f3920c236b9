package handlers

import (
	"github.com/docuchat/backend/internal/chatroom"
	"github.com/docuchat/backend/internal/config"
	"github.com/docuchat/backend/internal/email"
	"github.com/docuchat/backend/internal/rag"
	"github.com/docuchat/backend/internal/storage"
	"github.com/docuchat/backend/internal/store/rabbitmq"
	"github.com/docuchat/backend/internal/store/redisstore"
	"gorm.io/gorm"
)

// Handler bundles the collaborators the HTTP handlers need. Everything is
// constructed once in cmd/server and injected; handlers never build clients.
type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	Redis       *redisstore.Store
	SMTPSetting email.SMTPConfig
	Rooms       *chatroom.Service
	RAG         *rag.Service
	Storage     *storage.Client
	Publisher   *rabbitmq.Publisher
}

func NewHandler(
	db *gorm.DB,
	cfg config.Config,
	rds *redisstore.Store,
	rooms *chatroom.Service,
	ragSvc *rag.Service,
	store *storage.Client,
	pub *rabbitmq.Publisher,
) *Handler {
	return &Handler{
		DB:    db,
		Cfg:   cfg,
		Redis: rds,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		Rooms:     rooms,
		RAG:       ragSvc,
		Storage:   store,
		Publisher: pub,
	}
}
