package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

// apiError carries an HTTP status alongside a wire-safe message.
type apiError struct {
	status  int
	field   string
	code    string
	message string
}

func (e *apiError) Error() string {
	if e.code != "" {
		return e.code
	}
	return e.message
}

func invalidRequestError() error {
	return &apiError{status: http.StatusBadRequest, message: "invalid request payload"}
}

func newValidationError(field, code, message string) error {
	return &apiError{status: http.StatusBadRequest, field: field, code: code, message: message}
}

// Validation sentinels from the domain layer and the message each maps to.
var validationMessages = map[error]string{
	incidentdomain.ErrMissingIncidentType: "incident_type is required",
	telemetrydomain.ErrMissingUserID:      "userId is required",
	verificationdomain.ErrMissingUserID:   "userId is required",
	pooldomain.ErrMissingUserID:           "userId is required",
	guardraildomain.ErrMissingUserID:      "userId is required",
	pooldomain.ErrInvalidSeats:            "seats_intended must be at least 1",
	pooldomain.ErrInvalidWTP:              "wtp_band must be low, mid or high",
}

// AbortWithError maps domain errors onto the wire: 404 for unknown pools,
// 400 for validation failures, 500 with a detail string for anything else.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, gin.H{"error": apiErr.message})
		return
	}

	if errors.Is(err, pooldomain.ErrPoolNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
		return
	}

	for sentinel, message := range validationMessages {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":  "Server error",
		"detail": err.Error(),
	})
}
