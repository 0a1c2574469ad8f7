package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type applyGuardrailsRequest struct {
	UserID     string          `json:"userId"`
	Guardrails map[string]bool `json:"guardrails"`
}

func (s *Server) ApplyGuardrails(c *gin.Context) {
	var req applyGuardrailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseRequiredID(req.UserID, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entry, err := s.guardrailSvc.Apply(c.Request.Context(), userID, req.Guardrails)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
