package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/docuchat/backend/internal/chatroom"
	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/rag"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StartChat enqueues the ingestion run for a chat room. The worker picks the
// job up; poll GET /chat/jobs/:job_id for progress.
func (h *Handler) StartChat(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	job, err := h.Rooms.EnqueueIngest(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
		case errors.Is(err, chatroom.ErrJobRunning):
			common.Fail(c, http.StatusConflict, 10060, "ingestion is already in progress for this chat room")
		default:
			common.Fail(c, http.StatusInternalServerError, 20001, "failed to enqueue ingestion")
		}
		return
	}

	if err := h.Publisher.PublishIngestJob(c.Request.Context(), job.ID); err != nil {
		log.Printf("publish ingest job=%s failed: %v", job.ID, err)
		common.Fail(c, http.StatusInternalServerError, 20020, "failed to enqueue ingestion")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "ok",
		"data":    gin.H{"job_id": job.ID, "status": job.Status},
	})
}

func (h *Handler) GetIngestJob(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	job, err := h.Rooms.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40404, "job not found")
		return
	}
	// scope check through the room
	if _, err := h.Rooms.GetOwned(c.Request.Context(), orgID, job.ChatRoomID); err != nil {
		common.Fail(c, http.StatusNotFound, 40404, "job not found")
		return
	}

	common.OK(c, job)
}

type chatReq struct {
	Question    string     `json:"question" binding:"required"`
	ChatHistory []rag.Turn `json:"chat_history"`
}

// Chat answers a question against the chat room's ingested documents.
func (h *Handler) Chat(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	// ownership check before touching the pipeline
	if _, err := h.Rooms.GetOwned(c.Request.Context(), orgID, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	answer, err := h.RAG.AnswerQuestion(c.Request.Context(), c.Param("id"), req.Question, req.ChatHistory)
	if err != nil {
		h.failRAG(c, err)
		return
	}

	common.OK(c, answer)
}

// failRAG maps pipeline errors to user-facing responses. Credential and
// no-files failures get specific messages; everything else is generic, with
// full detail kept in the logs.
func (h *Handler) failRAG(c *gin.Context, err error) {
	log.Printf("rag error path=%s err=%v", c.FullPath(), err)
	switch {
	case errors.Is(err, rag.ErrMissingAPIKey):
		common.Fail(c, http.StatusBadRequest, 10030, "you haven't added your OpenAI API key yet")
	case errors.Is(err, rag.ErrNoFiles):
		common.Fail(c, http.StatusBadRequest, 10031, "please upload files to proceed")
	case errors.Is(err, rag.ErrIngestRunning):
		common.Fail(c, http.StatusConflict, 10060, "ingestion is already in progress for this chat room")
	case errors.Is(err, rag.ErrRateLimited):
		common.Fail(c, http.StatusTooManyRequests, 10032, "provider rate limit exceeded, try again later")
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
	default:
		common.Fail(c, http.StatusInternalServerError, 20030, "something went wrong")
	}
}
