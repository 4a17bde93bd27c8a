package model

import (
	"strings"
	"time"
)

// SearchCriteria narrows a discovery search. Each slice is an ordered set;
// empty slices mean "no constraint".
type SearchCriteria struct {
	Beats       []string `json:"beats,omitempty"`
	Countries   []string `json:"countries,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Regions     []string `json:"regions,omitempty"`
	OutletTypes []string `json:"outletTypes,omitempty"`
	DateRange   string   `json:"dateRange,omitempty"`
}

// SearchOptions tunes a single discovery run.
type SearchOptions struct {
	MaxResults     int    `json:"maxResults,omitempty"`
	Priority       string `json:"priority,omitempty"`
	DiversityBoost bool   `json:"diversityBoost,omitempty"`
}

// SearchRequest is the caller-supplied input to a discovery search.
// Immutable once accepted by the orchestrator.
type SearchRequest struct {
	Query       string         `json:"query"`
	Criteria    SearchCriteria `json:"criteria"`
	Options     SearchOptions  `json:"options"`
	RequesterID string         `json:"requesterId"`
}

// EnhancementType describes how a base query is transformed.
type EnhancementType string

const (
	EnhancementExpansion       EnhancementType = "expansion"
	EnhancementRefinement      EnhancementType = "refinement"
	EnhancementLocalization    EnhancementType = "localization"
	EnhancementDiversification EnhancementType = "diversification"
)

// EmailValidationResult is the combined outcome of all validation checks
// for one address. Cached results are returned verbatim within the TTL.
type EmailValidationResult struct {
	Email        string   `json:"email"`
	IsValid      bool     `json:"isValid"`
	IsDisposable bool     `json:"isDisposable"`
	IsTemporary  bool     `json:"isTemporary"`
	DomainExists bool     `json:"domainExists"`
	MXRecords    bool     `json:"mxRecords"`
	SpamScore    float64  `json:"spamScore"`
	Suggestions  []string `json:"suggestions,omitempty"`
	Reasoning    string   `json:"reasoning"`
}

// EmailType is the classifier's tag for an address.
type EmailType string

const (
	EmailTypePersonal   EmailType = "personal"
	EmailTypeDepartment EmailType = "department"
	EmailTypeGeneric    EmailType = "generic"
	EmailTypeAlias      EmailType = "alias"
	EmailTypeUnknown    EmailType = "unknown"
)

// EmailClassification is the external classifier capability's output.
type EmailClassification struct {
	Type        EmailType `json:"type"`
	Confidence  float64   `json:"confidence"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// CandidateContact is one discovered journalist/contact record.
type CandidateContact struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role,omitempty"`
	Organization string  `json:"organization,omitempty"`
	SourceURL    string  `json:"sourceUrl"`
	Confidence   float64 `json:"confidence"`
	SpamScore    float64 `json:"spamScore"`
}

// DedupKey returns the normalized email used to merge duplicate candidates.
func (c CandidateContact) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// SearchStatus is the lifecycle state of a search execution.
type SearchStatus string

const (
	StatusPending    SearchStatus = "pending"
	StatusProcessing SearchStatus = "processing"
	StatusCompleted  SearchStatus = "completed"
	StatusFailed     SearchStatus = "failed"
	StatusCancelled  SearchStatus = "cancelled"
)

// IsTerminal reports whether the status is absorbing.
func (s SearchStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// SearchExecution tracks one search through its lifecycle. Mutated only by
// the orchestrator goroutine that owns the search id.
type SearchExecution struct {
	ID        string             `json:"id"`
	Status    SearchStatus       `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Progress  int                `json:"progress"`
	Results   []CandidateContact `json:"results"`
	Errors    []string           `json:"errors,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// RateLimitState reports quota consumption for one (user, endpoint) pair.
type RateLimitState struct {
	UserID            string    `json:"userId"`
	EndpointType      string    `json:"endpointType"`
	Limit             int       `json:"limit"`
	Remaining         int       `json:"remaining"`
	WindowResetAt     time.Time `json:"windowResetAt"`
	RetryAfterSeconds int       `json:"retryAfterSeconds,omitempty"`
}
