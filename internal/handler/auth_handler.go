package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-search-api/internal/service"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
	"github.com/noah-isme/timetable-search-api/pkg/response"
)

// AuthHandler issues device tokens.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type tokenRequest struct {
	DeviceID string `json:"device_id"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	DeviceID  string `json:"device_id"`
	ExpiresAt int64  `json:"expires_at"`
}

// Token godoc
// @Summary Issue a device token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body tokenRequest false "Existing device ID to renew"
// @Success 200 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}

	token, claims, err := h.auth.IssueToken(req.DeviceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokenResponse{
		Token:     token,
		DeviceID:  claims.DeviceID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil)
}
