package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docuchat/backend/internal/chatroom"
	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// storagePrefix is the organization+chat-room namespace inside the bucket.
func storagePrefix(orgName, roomID string) string {
	return orgName + "/" + chatroom.CollectionName(roomID)
}

// UploadFile stores one PDF in the room's storage namespace and flips the
// room to READY on its first file.
func (h *Handler) UploadFile(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	room, err := h.Rooms.GetOwnedWithOrg(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10050, "file is required")
		return
	}

	prefix := storagePrefix(room.Organization.Name, room.ID)

	if room.Organization.Subscription == models.PlanSolo {
		names, err := h.Storage.List(c.Request.Context(), prefix)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 20010, "storage error")
			return
		}
		if len(names) >= models.SoloMaxFilesPerRoom {
			common.Fail(c, http.StatusBadRequest, 10051, "you can only upload maximum 2 files in a chat room with SOLO plan")
			return
		}
	}

	f, err := fileHeader.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10052, "failed to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10052, "failed to read file")
		return
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(),
		strings.ReplaceAll(fileHeader.Filename, " ", "_"))
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	path := prefix + "/" + name
	if err := h.Storage.Upload(c.Request.Context(), path, contentType, data); err != nil {
		common.Fail(c, http.StatusBadGateway, 20011, "failed to upload file")
		return
	}

	if err := h.Rooms.MarkFileUploaded(c.Request.Context(), room.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{"path": path})
}

func (h *Handler) ListFiles(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	room, err := h.Rooms.GetOwnedWithOrg(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	names, err := h.Storage.List(c.Request.Context(), storagePrefix(room.Organization.Name, room.ID))
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20010, "storage error")
		return
	}

	common.OK(c, gin.H{"files": names})
}

func (h *Handler) FileSignedURL(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	room, err := h.Rooms.GetOwnedWithOrg(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	path := storagePrefix(room.Organization.Name, room.ID) + "/" + c.Param("name")
	urls, err := h.Storage.SignedURLs(c.Request.Context(), []string{path},
		time.Duration(h.Cfg.SignedURLTTLSec)*time.Second)
	if err != nil || len(urls) != 1 {
		common.Fail(c, http.StatusBadGateway, 20010, "storage error")
		return
	}

	common.OK(c, gin.H{"url": urls[0]})
}

// DeleteFile removes one file and flips the room back to PENDING when no
// files remain.
func (h *Handler) DeleteFile(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	room, err := h.Rooms.GetOwnedWithOrg(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "chat room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	prefix := storagePrefix(room.Organization.Name, room.ID)
	if err := h.Storage.Remove(c.Request.Context(), []string{prefix + "/" + c.Param("name")}); err != nil {
		common.Fail(c, http.StatusBadGateway, 20011, "failed to delete file")
		return
	}

	remaining, err := h.Storage.List(c.Request.Context(), prefix)
	if err != nil {
		common.Fail(c, http.StatusBadGateway, 20010, "storage error")
		return
	}

	if err := h.Rooms.MarkFileDeleted(c.Request.Context(), room.ID, len(remaining)); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{})
}
