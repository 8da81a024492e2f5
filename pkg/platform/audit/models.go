package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events for routing and retention.
type EventCategory string

const (
	// CategoryCompliance covers changes to durable company records.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers credential failures and linkage changes.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine issuance and housekeeping.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// Subject is the buid the event concerns, when known.
	Subject   string `json:"subject,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Action    string `json:"action"`
	Channel   string `json:"channel,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
}

type AuditEvent string

const (
	// Company events
	EventCompanyCreated      AuditEvent = "company_created"
	EventCompanyUpdated      AuditEvent = "company_updated"
	EventCompanyDeleted      AuditEvent = "company_deleted"
	EventTelegramAuthLinked  AuditEvent = "telegram_auth_linked"
	EventTelegramAuthUpdated AuditEvent = "telegram_auth_updated"

	// Provisional credential events
	EventCredentialIssued   AuditEvent = "credential_issued"
	EventCredentialVerified AuditEvent = "credential_verified"
	EventCredentialRejected AuditEvent = "credential_rejected"
	EventCredentialsSwept   AuditEvent = "credentials_swept"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCompanyCreated: CategoryCompliance,
	EventCompanyUpdated: CategoryCompliance,
	EventCompanyDeleted: CategoryCompliance,

	EventTelegramAuthLinked:  CategorySecurity,
	EventTelegramAuthUpdated: CategorySecurity,
	EventCredentialRejected:  CategorySecurity,

	EventCredentialIssued:   CategoryOperations,
	EventCredentialVerified: CategoryOperations,
	EventCredentialsSwept:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
