package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
)

type joinPoolRequest struct {
	UserID   string `json:"userId"`
	Provider string `json:"provider"`
	PoolType string `json:"pool_type"`
}

func (s *Server) JoinPool(c *gin.Context) {
	var req joinPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, _ := parseOptionalID(req.UserID)

	resp, err := s.poolSvc.Join(c.Request.Context(), pooldomain.JoinRequest{
		UserID:   userID,
		Provider: strings.TrimSpace(req.Provider),
		PoolType: strings.TrimSpace(req.PoolType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type createPledgeRequest struct {
	UserID           string `json:"userId"`
	SeatsIntended    int    `json:"seats_intended"`
	WTPBand          string `json:"wtp_band"`
	Contact          string `json:"contact"`
	ReferralCodeUsed string `json:"referral_code_used"`
}

type pledgeResponse struct {
	Pledge    pooldomain.Pledge        `json:"pledge"`
	Aggregate pooldomain.PoolAggregate `json:"aggregate"`
}

func (s *Server) CreatePledge(c *gin.Context) {
	poolID, err := parsePoolID(c.Param("poolId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createPledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseRequiredID(req.UserID, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pledge, err := s.poolSvc.UpsertPledge(c.Request.Context(), pooldomain.PledgeRequest{
		PoolID:           poolID,
		UserID:           userID,
		SeatsIntended:    req.SeatsIntended,
		WTPBand:          strings.TrimSpace(req.WTPBand),
		Contact:          strings.TrimSpace(req.Contact),
		ReferralCodeUsed: strings.TrimSpace(req.ReferralCodeUsed),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	aggregate, err := s.poolSvc.Aggregate(c.Request.Context(), poolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pledgeResponse{Pledge: pledge, Aggregate: aggregate})
}

func (s *Server) GetPoolAggregate(c *gin.Context) {
	s.servePoolAggregate(c, c.Param("poolId"))
}

// GetLabPoolAggregate serves the analytics view; same payload, separate path.
func (s *Server) GetLabPoolAggregate(c *gin.Context) {
	s.servePoolAggregate(c, c.Param("poolId"))
}

func (s *Server) servePoolAggregate(c *gin.Context, rawID string) {
	poolID, err := parsePoolID(rawID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	aggregate, err := s.poolSvc.Aggregate(c.Request.Context(), poolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, aggregate)
}

func (s *Server) GetPoolAggregateBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))

	aggregate, err := s.poolSvc.AggregateBySlug(c.Request.Context(), slug)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, aggregate)
}

// parsePoolID maps malformed ids to the not-found error so unknown and
// unparseable pool ids produce the same 404 on the wire.
func parsePoolID(value string) (snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, pooldomain.ErrPoolNotFound
	}
	id, err := snowflake.ParseString(value)
	if err != nil {
		return 0, pooldomain.ErrPoolNotFound
	}
	return id, nil
}
