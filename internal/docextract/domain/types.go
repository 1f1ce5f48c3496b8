package domain

import "time"

// DocumentKind is the type hint supplied with an upload
type DocumentKind string

const (
	KindImage DocumentKind = "image"
	KindPDF   DocumentKind = "pdf"
)

// Valid reports whether k is a known document kind
func (k DocumentKind) Valid() bool {
	return k == KindImage || k == KindPDF
}

// ExtractionRequest is the immutable input of one extraction.
// Data must not be modified by any stage of the pipeline.
type ExtractionRequest struct {
	Data     []byte       `validate:"required,min=1"`
	Kind     DocumentKind `validate:"required,oneof=image pdf"`
	UserID   string       `validate:"required"`
	FileName string       `validate:"required,max=255"`
}

// RawRecognition is the result of a single backend attempt
type RawRecognition struct {
	Backend  string        `json:"backend"`
	Text     string        `json:"-"`
	Success  bool          `json:"success"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// ErrorString returns the attempt error message or an empty string
func (r RawRecognition) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// IdentityRecord holds the fields extracted from an identity document.
// A nil field means no heuristic matched it.
type IdentityRecord struct {
	Locality       *string `json:"locality" db:"locality"`
	County         *string `json:"county" db:"county"`
	Street         *string `json:"street" db:"street"`
	StreetNumber   *string `json:"street_number" db:"street_number"`
	Block          *string `json:"block" db:"block"`
	Staircase      *string `json:"staircase" db:"staircase"`
	Floor          *string `json:"floor" db:"floor"`
	Apartment      *string `json:"apartment" db:"apartment"`
	DocumentSeries *string `json:"document_series" db:"document_series"`
	DocumentNumber *string `json:"document_number" db:"document_number"`
	PersonalCode   *string `json:"personal_code" db:"personal_code"`
	IssuingOffice  *string `json:"issuing_office" db:"issuing_office"`
	ValidUntil     *string `json:"valid_until" db:"valid_until"`
}

// fields returns the record fields paired with their column names, in schema order
func (r *IdentityRecord) fields() []struct {
	name  string
	value *string
} {
	return []struct {
		name  string
		value *string
	}{
		{"locality", r.Locality},
		{"county", r.County},
		{"street", r.Street},
		{"street_number", r.StreetNumber},
		{"block", r.Block},
		{"staircase", r.Staircase},
		{"floor", r.Floor},
		{"apartment", r.Apartment},
		{"document_series", r.DocumentSeries},
		{"document_number", r.DocumentNumber},
		{"personal_code", r.PersonalCode},
		{"issuing_office", r.IssuingOffice},
		{"valid_until", r.ValidUntil},
	}
}

// FieldsPresent returns the column names of all non-empty fields
func (r *IdentityRecord) FieldsPresent() []string {
	var present []string
	for _, f := range r.fields() {
		if f.value != nil && *f.value != "" {
			present = append(present, f.name)
		}
	}
	return present
}

// IsEmpty reports whether no field carries a value.
// A record that is not empty is a meaningful result.
func (r *IdentityRecord) IsEmpty() bool {
	return len(r.FieldsPresent()) == 0
}

// ProcessingOutcome is the final result of one extraction
type ProcessingOutcome struct {
	Record           IdentityRecord   `json:"record"`
	Backend          string           `json:"backend,omitempty"`
	FallbackOccurred bool             `json:"fallback_occurred"`
	RawText          string           `json:"-"`
	Attempts         []RawRecognition `json:"attempts"`
	PageCount        int              `json:"page_count,omitempty"`
}

// Succeeded reports whether a backend produced a meaningful record
func (o *ProcessingOutcome) Succeeded() bool {
	return o.Backend != ""
}

// IdentityDocument is a persisted extraction result
type IdentityDocument struct {
	ID       string `json:"id" db:"id"`
	UserID   string `json:"user_id" db:"user_id"`
	FileName string `json:"file_name" db:"file_name"`
	FilePath string `json:"file_path" db:"file_path"`
	IdentityRecord
	Backend          *string   `json:"backend" db:"backend"`
	FallbackOccurred bool      `json:"fallback_occurred" db:"fallback_occurred"`
	RawText          *string   `json:"-" db:"raw_text"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
