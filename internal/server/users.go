package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/wordbridge/linguameter/internal/identity/domain"
)

type registerUserRequest struct {
	DeviceInfo identitydomain.DeviceInfo `json:"deviceInfo"`
	IsNative   bool                      `json:"isNative"`
}

func (s *Server) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.DeviceInfo == (identitydomain.DeviceInfo{}) {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.identitySvc.Register(c.Request.Context(), identitydomain.RegisterRequest{
		UserID:     UserID(c),
		DeviceInfo: req.DeviceInfo,
		IsNative:   req.IsNative,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
