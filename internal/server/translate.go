package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	translatedomain "github.com/wordbridge/linguameter/internal/translate/domain"
)

type translateRequest struct {
	Text        string   `json:"text"`
	SourceLang  string   `json:"sourceLang"`
	TargetLangs []string `json:"targetLangs"`
}

func (s *Server) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.translateSvc.Translate(c.Request.Context(), UserID(c), translatedomain.Request{
		Text:        req.Text,
		SourceLang:  req.SourceLang,
		TargetLangs: req.TargetLangs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) QuotaStatus(c *gin.Context) {
	status, err := s.translateSvc.QuotaStatus(c.Request.Context(), UserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
