package handlers

import (
	"net/http"

	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetOrganization(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var org models.Organization
	if err := h.DB.WithContext(c.Request.Context()).First(&org, "id = ?", orgID).Error; err != nil {
		common.Fail(c, http.StatusNotFound, 40402, "organization not found")
		return
	}

	common.OK(c, gin.H{
		"id":             org.ID,
		"name":           org.Name,
		"email":          org.Email,
		"subscription":   org.Subscription,
		"has_openai_key": org.OpenAIAPIKey != nil && *org.OpenAIAPIKey != "",
	})
}

type updateOrganizationReq struct {
	Name         *string `json:"name"`
	OpenAIAPIKey *string `json:"openai_api_key"`
}

// UpdateOrganization lets the tenant admin rename the workspace and set the
// OpenAI API key every RAG call depends on.
func (h *Handler) UpdateOrganization(c *gin.Context) {
	_, orgID, ok := callerFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateOrganizationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.OpenAIAPIKey != nil {
		updates["openai_api_key"] = *req.OpenAIAPIKey
	}
	if len(updates) == 0 {
		common.OK(c, gin.H{})
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Model(&models.Organization{}).
		Where("id = ?", orgID).
		Updates(updates).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{})
}
