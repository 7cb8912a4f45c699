package audit

import (
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authorization events
	EventTypeAccessGranted EventType = "authz.access_granted"
	EventTypeAccessDenied  EventType = "authz.access_denied"
	EventTypeAuthorize     EventType = "authz.check"

	// Catalog events
	EventTypeCacheClear     EventType = "catalog.cache_clear"
	EventTypeLanguageChange EventType = "catalog.language_change"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event represents a single audit log entry
type Event struct {
	// Core fields
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor and tenant
	UserID    string   `json:"user_id,omitempty"`
	CompanyID string   `json:"company_id,omitempty"`
	Roles     []string `json:"roles,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`

	// Additional details
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
