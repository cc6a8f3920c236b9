package handlers

import (
	"errors"
	"net/http"

	"github.com/docuchat/backend/internal/chatroom"
	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createChatRoomReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) CreateChatRoom(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createChatRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var org models.Organization
	if err := h.DB.WithContext(c.Request.Context()).First(&org, "id = ?", orgID).Error; err != nil {
		common.Fail(c, http.StatusNotFound, 40402, "organization not found")
		return
	}

	room, err := h.Rooms.Create(c.Request.Context(), &org, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, chatroom.ErrPlanLimit) {
			common.Fail(c, http.StatusBadRequest, 10040, "can't create more than 2 chat rooms with SOLO plan")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "failed to create chat room")
		return
	}

	common.OK(c, gin.H{"id": room.ID, "name": room.Name})
}

func (h *Handler) ListChatRooms(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	rooms, err := h.Rooms.List(c.Request.Context(), orgID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "failed to list chat rooms")
		return
	}

	common.OK(c, gin.H{"chat_rooms": rooms})
}

func (h *Handler) GetChatRoom(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	room, err := h.Rooms.GetOwned(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, room)
}

func (h *Handler) UpdateChatRoom(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createChatRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if err := h.Rooms.UpdateDetails(c.Request.Context(), orgID, c.Param("id"), req.Name, req.Description); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{})
}
