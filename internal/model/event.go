package model

// EventType discriminates progress events on the stream. Consumers dispatch
// on the type tag set at creation time by the producing stage.
type EventType string

const (
	EventContextualSentenceAdded   EventType = "ContextualSentenceAdded"
	EventSelectedContentAdded      EventType = "SelectedContentAdded"
	EventDisambiguatedContentAdded EventType = "DisambiguatedContentAdded"
	EventPotentialClaimAdded       EventType = "PotentialClaimAdded"
	EventValidatedClaimAdded       EventType = "ValidatedClaimAdded"
	EventSearchQueryGenerated      EventType = "SearchQueryGenerated"
	EventEvidenceRetrieved         EventType = "EvidenceRetrieved"
	EventClaimVerificationResult   EventType = "ClaimVerificationResult"
	EventFactCheckReportGenerated  EventType = "FactCheckReportGenerated"
	EventError                     EventType = "Error"
)

// Event is one item on the pipeline's progress stream. Data holds the
// payload matching the Type tag.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// ErrorScope identifies the blast radius of an Error event.
type ErrorScope string

const (
	// ScopeStage marks a single item's failure inside a linear stage; the
	// item is dropped and the run continues.
	ScopeStage ErrorScope = "stage"
	// ScopeClaim marks one claim's verifier sub-workflow failing; other
	// claims are unaffected.
	ScopeClaim ErrorScope = "claim"
	// ScopeRun marks a systemic failure terminating the whole run.
	ScopeRun ErrorScope = "run"
)

// ErrorEvent is the payload of an Error-typed event.
type ErrorEvent struct {
	Message    string     `json:"message"`
	Scope      ErrorScope `json:"scope"`
	Identifier string     `json:"identifier,omitempty"`
}

// QueryGenerated is the payload of a SearchQueryGenerated event, keyed by
// claim text so interleaved per-claim progress can be told apart.
type QueryGenerated struct {
	ClaimText string `json:"claim_text"`
	Query     string `json:"query"`
}

// EvidenceRetrieved is the payload of an EvidenceRetrieved event.
type EvidenceRetrieved struct {
	ClaimText string     `json:"claim_text"`
	Evidence  []Evidence `json:"evidence"`
}

// Typed event constructors. Stages create events only through these so the
// type tag and payload shape can never drift apart.

func NewContextualSentenceEvent(s ContextualSentence) Event {
	return Event{Type: EventContextualSentenceAdded, Data: s}
}

func NewSelectedContentEvent(s SelectedContent) Event {
	return Event{Type: EventSelectedContentAdded, Data: s}
}

func NewDisambiguatedContentEvent(d DisambiguatedContent) Event {
	return Event{Type: EventDisambiguatedContentAdded, Data: d}
}

func NewPotentialClaimEvent(c PotentialClaim) Event {
	return Event{Type: EventPotentialClaimAdded, Data: c}
}

func NewValidatedClaimEvent(c ValidatedClaim) Event {
	return Event{Type: EventValidatedClaimAdded, Data: c}
}

func NewQueryGeneratedEvent(claimText, query string) Event {
	return Event{Type: EventSearchQueryGenerated, Data: QueryGenerated{ClaimText: claimText, Query: query}}
}

func NewEvidenceRetrievedEvent(claimText string, evidence []Evidence) Event {
	return Event{Type: EventEvidenceRetrieved, Data: EvidenceRetrieved{ClaimText: claimText, Evidence: evidence}}
}

func NewVerdictEvent(v Verdict) Event {
	return Event{Type: EventClaimVerificationResult, Data: v}
}

func NewReportEvent(r FactCheckReport) Event {
	return Event{Type: EventFactCheckReportGenerated, Data: r}
}

func NewErrorEvent(scope ErrorScope, identifier, message string) Event {
	return Event{Type: EventError, Data: ErrorEvent{Message: message, Scope: scope, Identifier: identifier}}
}
