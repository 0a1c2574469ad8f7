package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/clock"
	"github.com/cedarforestgiant/swimmeret/internal/events"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	userdomain "github.com/cedarforestgiant/swimmeret/internal/user/domain"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clk    clock.Clock
	outbox *events.Outbox
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

func NewService(p ServiceParam) incidentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("incident.service"),

		genID:  p.GenID,
		clk:    p.Clock,
		outbox: p.Outbox,
	}
}

// Report appends an incident, creating the reporting user on first contact.
// Incidents are never mutated after insert.
func (s *Service) Report(ctx context.Context, req incidentdomain.ReportRequest) (incidentdomain.ReportResponse, error) {
	if strings.TrimSpace(req.IncidentType) == "" {
		return incidentdomain.ReportResponse{}, incidentdomain.ErrMissingIncidentType
	}

	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = telemetrydomain.DefaultProvider
	}

	now := s.clk.Now()
	var resp incidentdomain.ReportResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.ensureUser(ctx, tx, req, now)
		if err != nil {
			return err
		}

		incident := incidentdomain.Incident{
			ID:               s.genID.Generate(),
			UserID:           user.ID,
			IncidentType:     strings.TrimSpace(req.IncidentType),
			Provider:         provider,
			SeatsBand:        strings.TrimSpace(req.SeatsBand),
			AgentsBand:       strings.TrimSpace(req.AgentsBand),
			Urgency:          strings.TrimSpace(req.Urgency),
			ConsentTelemetry: req.ConsentTelemetry,
			CreatedAt:        now,
		}
		if err := tx.WithContext(ctx).Create(&incident).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventIncidentReported,
			Payload: events.IncidentPayload{
				IncidentID:   incident.ID.String(),
				UserID:       user.ID.String(),
				IncidentType: incident.IncidentType,
				Provider:     incident.Provider,
			}.ToMap(),
		}); err != nil {
			return err
		}

		resp = incidentdomain.ReportResponse{UserID: user.ID, IncidentID: incident.ID}
		return nil
	})
	if err != nil {
		return incidentdomain.ReportResponse{}, err
	}

	s.log.Info("incident reported",
		zap.String("user_id", resp.UserID.String()),
		zap.String("incident_id", resp.IncidentID.String()),
		zap.String("incident_type", strings.TrimSpace(req.IncidentType)),
	)
	return resp, nil
}

// ensureUser reuses the user referenced by the request or creates one,
// refreshing the stored email when the report carries a new one.
func (s *Service) ensureUser(ctx context.Context, tx *gorm.DB, req incidentdomain.ReportRequest, now time.Time) (userdomain.User, error) {
	email := strings.TrimSpace(req.Email)

	var user userdomain.User
	if req.UserID != 0 {
		err := tx.WithContext(ctx).Where("id = ?", req.UserID).First(&user).Error
		if err == nil {
			if email != "" && email != user.Email {
				user.Email = email
				if err := tx.WithContext(ctx).Model(&userdomain.User{}).
					Where("id = ?", user.ID).
					Update("email", email).Error; err != nil {
					return userdomain.User{}, err
				}
			}
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return userdomain.User{}, err
		}
	}

	workspaceID := strings.TrimSpace(req.WorkspaceID)
	if workspaceID == "" {
		workspaceID = userdomain.DefaultWorkspaceID
	}
	user = userdomain.User{
		ID:          s.genID.Generate(),
		Email:       email,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return userdomain.User{}, err
	}
	return user, nil
}
