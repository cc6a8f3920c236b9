package handlers

import (
	"net/http"

	"github.com/docuchat/backend/internal/auth"
	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/email"
	"github.com/docuchat/backend/internal/httpapi/middleware"
	"github.com/docuchat/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func callerFromContext(c *gin.Context) (userID uint64, orgID string, ok bool) {
	uv, uok := c.Get(middleware.UserIDKey)
	ov, ook := c.Get(middleware.OrgIDKey)
	if !uok || !ook {
		return 0, "", false
	}
	uid, uok := uv.(uint64)
	oid, ook := ov.(string)
	return uid, oid, uok && ook
}

func (h *Handler) Me(c *gin.Context) {
	uid, _, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).
		Preload("Organization").
		First(&user, uid).Error; err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "user not found")
		return
	}

	common.OK(c, gin.H{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"role":         user.Role,
		"organization": user.Organization.Name,
	})
}

type updateProfileReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, _, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", uid).
		Update("name", req.Name).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{})
}

func (h *Handler) ListUsers(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var users []models.User
	if err := h.DB.WithContext(c.Request.Context()).
		Where("organization_id = ?", orgID).
		Order("id ASC").
		Find(&users).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role})
	}
	common.OK(c, gin.H{"users": out})
}

type inviteUsersReq struct {
	Emails []string `json:"emails" binding:"required,min=1,dive,email"`
}

// InviteUsers creates placeholder accounts for the invited addresses and
// mails each a reset token to finish setup.
func (h *Handler) InviteUsers(c *gin.Context) {
	uid, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req inviteUsersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var inviter models.User
	if err := h.DB.WithContext(c.Request.Context()).
		Preload("Organization").
		First(&inviter, uid).Error; err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "inviter not found")
		return
	}

	for _, addr := range req.Emails {
		hash, err := auth.HashPassword(uuid.NewString())
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
			return
		}
		invited := models.User{
			Email:          addr,
			PasswordHash:   hash,
			Role:           models.RoleMember,
			InvitedByID:    &inviter.ID,
			OrganizationID: orgID,
		}
		if err := h.DB.WithContext(c.Request.Context()).Create(&invited).Error; err != nil {
			common.Fail(c, http.StatusConflict, 10003, "user already exists: "+addr)
			return
		}

		token := uuid.NewString()
		if err := h.Redis.SetResetToken(c.Request.Context(), token, invited.ID, models.InviteTokenTTL); err != nil {
			common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
			return
		}

		go func(to, token string) {
			_ = email.SendText(h.SMTPSetting, to, "You have been invited to DocuChat",
				email.InvitationBody(inviter.Name, inviter.Organization.Name, token))
		}(addr, token)
	}

	common.OK(c, gin.H{})
}
