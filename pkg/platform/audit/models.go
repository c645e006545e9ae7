package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle changes with HR or legal
	// significance (disable on resignation, expiry dates).
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events that warrant alerting, such as a
	// reconciliation run that could not reach the directory.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity: attribute refreshes and
	// completed runs.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a reconciliation commits. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Subject is the directory DN for account events or the run ID for run events.
	Subject    string
	RunID      string
	EmployeeID string
	Reason     string
	RequestID  string
	// ActorID is the authenticated caller that triggered the run, if any.
	ActorID string
}

type AuditEvent string

const (
	// Account lifecycle events
	EventAccountDisabled  AuditEvent = "account_disabled"
	EventAccountEnabled   AuditEvent = "account_enabled"
	EventAccountExpirySet AuditEvent = "account_expiry_set"
	EventAccountUpdated   AuditEvent = "account_updated"

	// Run events
	EventSyncCompleted AuditEvent = "directory_sync_completed"
	EventSyncFailed    AuditEvent = "directory_sync_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccountDisabled:  CategoryCompliance,
	EventAccountEnabled:   CategoryCompliance,
	EventAccountExpirySet: CategoryCompliance,

	EventSyncFailed: CategorySecurity,

	EventAccountUpdated: CategoryOperations,
	EventSyncCompleted:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxEntry is a persisted event waiting to be relayed to the broker.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}
