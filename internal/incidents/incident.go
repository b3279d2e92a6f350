// Package incidents implements the incident domain for Assura.
// It provides types, data access, and business logic for incident intake:
// PII pseudonymization, attachment analysis, structured extraction, and
// handoff to asynchronous post-processing.
package incidents

import (
	"time"

	"github.com/google/uuid"

	"github.com/assuralabs/assura/internal/evidence"
	"github.com/assuralabs/assura/internal/extraction"
	"github.com/assuralabs/assura/internal/pii"
)

// Status tracks an incident through its processing lifecycle.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusVerified   Status = "VERIFIED"
	StatusEscalated  Status = "ESCALATED"

	// StatusClosed is reserved for adjuster workflows; nothing transitions
	// into it yet.
	StatusClosed Status = "CLOSED"
)

// Timeline event types, in the order the pipeline can emit them.
const (
	EventIncidentCreated     = "incident_created"
	EventProcessingStarted   = "processing_started"
	EventCoverageDenied      = "coverage_denied"
	EventCoverageVerified    = "coverage_verified"
	EventSeverityUpdated     = "severity_updated"
	EventEscalated           = "escalated"
	EventFollowUpTriggered   = "follow_up_triggered"
	EventProcessingCompleted = "processing_completed"
	EventProcessingError     = "processing_error"
)

// Incident is a persisted claim intake. Story holds the pseudonymized
// narrative; the PII mapping restores the original text for its owner and is
// never serialized to callers.
type Incident struct {
	ID            uuid.UUID         `json:"id"`
	OwnerID       string            `json:"owner_id"`
	Status        Status            `json:"status"`
	Story         string            `json:"story"`
	ExtractedData extraction.Result `json:"extracted_data"`
	PIIMapping    pii.Mapping       `json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Documents     []Document        `json:"documents,omitempty"`
	Timeline      []ClaimEvent      `json:"timeline,omitempty"`
}

// ClaimEvent is one entry in an incident's ordered timeline.
type ClaimEvent struct {
	ID         uuid.UUID      `json:"id"`
	IncidentID uuid.UUID      `json:"incident_id"`
	EventType  string         `json:"event_type"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Document records an uploaded attachment and its blob storage reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	IncidentID  uuid.UUID `json:"incident_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateCommand carries a new incident submission.
type CreateCommand struct {
	OwnerID     string
	Story       string
	Attachments []evidence.Attachment
}

// CreateResponse is returned to the submitter once intake completes.
// Processing continues asynchronously; Status is always PENDING here.
type CreateResponse struct {
	IncidentID    uuid.UUID         `json:"incident_id"`
	Status        Status            `json:"status"`
	ExtractedData extraction.Result `json:"extracted_data"`
	Message       string            `json:"message"`
}
