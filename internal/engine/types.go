// Package engine implements the deterministic shortcut registry.
//
// A Shortcut is a named automation rule (pattern, action, confidence)
// backed by zero or more verified Citations. The Engine validates and
// stores shortcuts, executes them by id, and keeps an append-only log
// of ExecutionRecords for the audit trail.
//
// Flow:
//
//	CreateCitation() → Shortcut → Engine.Register() → Engine.Execute() → Engine.Log()
package engine

// SchemaVersion identifies the snapshot wire format.
const SchemaVersion = "1.0.0"

// DefaultMethod is the digest method used when none is specified.
const DefaultMethod = "sha256"

// Citation is an immutable reference to source content, verified by a
// one-way content digest. ContentHash must be non-empty; build Citations
// through NewCitation or CreateCitation, not by struct literal.
type Citation struct {
	// SourceID identifies where the cited content came from.
	SourceID string `json:"source_id"`

	// ContentHash is the lowercase hex digest of the cited content.
	ContentHash string `json:"content_hash"`

	// Timestamp is the RFC 3339 UTC creation time.
	Timestamp string `json:"timestamp"`

	// Method names the digest algorithm (e.g. "sha256").
	Method string `json:"verification_method"`
}

// CitationRef is the flattened citation view embedded in execution
// records. The creation timestamp is deliberately dropped.
type CitationRef struct {
	SourceID    string `json:"source_id"`
	ContentHash string `json:"content_hash"`
	Method      string `json:"verification_method"`
}

// Ref returns the flattened view of the citation.
func (c Citation) Ref() CitationRef {
	return CitationRef{
		SourceID:    c.SourceID,
		ContentHash: c.ContentHash,
		Method:      c.Method,
	}
}

// Shortcut is a deterministic rule in the registry.
// Validation happens at registration time, not construction.
type Shortcut struct {
	// ID is the unique registry key.
	ID string

	// Pattern describes what the shortcut matches.
	Pattern string

	// Action is the label of what the shortcut does.
	Action string

	// Confidence is a probability in [0.0, 1.0].
	Confidence float64

	// Citations back the shortcut, in insertion order. May be empty.
	Citations []Citation

	// Metadata is an open-ended bag of design implications.
	Metadata map[string]any
}

// Validate reports whether the shortcut may enter the registry:
// non-empty id and pattern, confidence within the closed [0,1] interval.
func (s *Shortcut) Validate() bool {
	if s.Confidence < 0.0 || s.Confidence > 1.0 {
		return false
	}
	if s.ID == "" || s.Pattern == "" {
		return false
	}
	return true
}

// ExecutionRecord captures one execution of a registered shortcut.
// Records are append-only and retained for the process lifetime.
// The JSON field names are the compatibility surface for existing
// consumers of the exported log.
type ExecutionRecord struct {
	NodeID     string         `json:"node_id"`
	Action     string         `json:"action"`
	Confidence float64        `json:"confidence"`
	Timestamp  string         `json:"timestamp"`
	Citations  []CitationRef  `json:"verified_citations"`
	Metadata   map[string]any `json:"design_implications"`
	Context    map[string]any `json:"context"`
}

// clone returns a deep copy of the record so callers cannot reach back
// into engine state through the log.
func (r ExecutionRecord) clone() ExecutionRecord {
	out := r
	out.Citations = make([]CitationRef, len(r.Citations))
	copy(out.Citations, r.Citations)
	out.Metadata = cloneBag(r.Metadata)
	out.Context = cloneBag(r.Context)
	return out
}

func cloneBag(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ShortcutSummary is the reduced per-shortcut view in a snapshot.
// Citation contents are omitted; only the count is exported.
type ShortcutSummary struct {
	Pattern           string         `json:"pattern"`
	Action            string         `json:"action"`
	Confidence        float64        `json:"confidence"`
	VerifiedCitations int            `json:"verified_citations"`
	Metadata          map[string]any `json:"design_implications"`
}

// Snapshot is the read-only structured summary of the registry.
type Snapshot struct {
	SchemaVersion   string                     `json:"schema_version"`
	Shortcuts       map[string]ShortcutSummary `json:"shortcuts"`
	TotalExecutions int                        `json:"total_executions"`
}
