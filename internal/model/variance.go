package model

import "time"

// Variance is a detected difference between the stored and extracted value of one field.
type Variance struct {
	ApplicationValue     *Value       `json:"application_value"`
	ExtractedValue       *Value       `json:"extracted_value"`
	Field                string       `json:"field"`
	Label                string       `json:"label"`
	ValueType            ValueType    `json:"value_type"`
	Context              FieldContext `json:"context"`
	FormattedApplication string       `json:"formatted_application"`
	FormattedExtracted   string       `json:"formatted_extracted"`
	Severity             Severity     `json:"severity"`
	VarianceAbsolute     float64      `json:"variance_absolute"`
	VariancePercentage   float64      `json:"variance_percentage"`
	// Unparsable is set when a numeric value could not be coerced; magnitudes stay zero.
	Unparsable bool `json:"unparsable,omitempty"`
}

// ResolutionKind is the user's decision for a flagged field.
type ResolutionKind string

// Resolution kinds.
const (
	Unresolved        ResolutionKind = "unresolved"
	Edited            ResolutionKind = "edited"
	AcceptedExtracted ResolutionKind = "accepted_extracted"
	AcceptedOriginal  ResolutionKind = "accepted_original"
)

// Resolution is the state of one flagged field within a session.
// Value is set for Edited and AcceptedExtracted.
type Resolution struct {
	Value *Value         `json:"value,omitempty"`
	Kind  ResolutionKind `json:"kind"`
}

// Extraction is a record produced by the document-extraction service for a loan.
type Extraction struct {
	CreatedAt    time.Time   `json:"created_at"`
	Record       *LoanRecord `json:"loan_application"`
	DocumentName string      `json:"document_name"`
	DocumentType string      `json:"document_type"`
	Errors       []string    `json:"errors,omitempty"`
	ID           int64       `json:"id"`
	LoanID       int64       `json:"loan_id"`
	Confidence   float64     `json:"confidence"`
}

// FieldOutcome records how one variance was settled in a finalized review.
type FieldOutcome struct {
	Resolution Resolution `json:"resolution"`
	Field      string     `json:"field"`
	Severity   Severity   `json:"severity"`
}

// ReconciliationRecord is the audit entry written when a review is finalized.
type ReconciliationRecord struct {
	FinalizedAt   time.Time      `json:"finalized_at"`
	Patch         *LoanPatch     `json:"patch"`
	SessionID     string         `json:"session_id"`
	Operator      string         `json:"operator"`
	Outcomes      []FieldOutcome `json:"outcomes"`
	LoanID        int64          `json:"loan_id"`
	ExtractionID  int64          `json:"extraction_id"`
	VarianceCount int            `json:"variance_count"`
	CriticalCount int            `json:"critical_count"`
}

// TimelineEventType classifies a timeline entry.
type TimelineEventType string

// Timeline event types.
const (
	EventInfo    TimelineEventType = "info"
	EventSuccess TimelineEventType = "success"
	EventWarning TimelineEventType = "warning"
	EventError   TimelineEventType = "error"
)

// TimelineEvent is a human-readable entry in a loan's history.
type TimelineEvent struct {
	CreatedAt time.Time         `json:"created_at"`
	Event     string            `json:"event"`
	User      string            `json:"user"`
	Type      TimelineEventType `json:"type"`
	ID        int64             `json:"id"`
	LoanID    int64             `json:"loan_id"`
}
