package events

// Pool event types recorded in the outbox.
const (
	EventIncidentReported = "incident.reported"
	EventSnapshotBuilt    = "snapshot.built"
	EventPledgeUpserted   = "pledge.upserted"
	EventPoolCreated      = "pool.created"
	EventGuardrailApplied = "guardrail.applied"
)

// PledgePayload captures the minimal data needed to replay a pledge write.
type PledgePayload struct {
	PledgeID   string `json:"pledge_id"`
	PoolID     string `json:"pool_id"`
	UserID     string `json:"user_id"`
	Seats      int    `json:"seats"`
	IsVerified bool   `json:"is_verified"`
}

// IncidentPayload captures the minimal data needed to replay a report.
type IncidentPayload struct {
	IncidentID   string `json:"incident_id"`
	UserID       string `json:"user_id"`
	IncidentType string `json:"incident_type"`
	Provider     string `json:"provider,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PledgePayload) ToMap() map[string]any {
	return map[string]any{
		"pledge_id":   p.PledgeID,
		"pool_id":     p.PoolID,
		"user_id":     p.UserID,
		"seats":       p.Seats,
		"is_verified": p.IsVerified,
	}
}

// ToMap converts a payload into an outbox-friendly map.
func (p IncidentPayload) ToMap() map[string]any {
	return map[string]any{
		"incident_id":   p.IncidentID,
		"user_id":       p.UserID,
		"incident_type": p.IncidentType,
		"provider":      p.Provider,
	}
}
