package engine

import (
	"sync"
	"time"

	"comet/internal/logging"

	"github.com/google/uuid"
)

// Engine owns the id → Shortcut mapping and the append-only execution log.
// The two collections are independent mutable resources and are guarded by
// separate locks: concurrent registration and concurrent execution never
// contend with each other.
type Engine struct {
	mu        sync.RWMutex
	shortcuts map[string]*Shortcut

	logMu        sync.Mutex
	executionLog []ExecutionRecord

	schemaVersion string
	id            string
	audit         *logging.AuditLogger
}

// New creates an empty engine.
func New() *Engine {
	id := uuid.NewString()
	return &Engine{
		shortcuts:     make(map[string]*Shortcut),
		schemaVersion: SchemaVersion,
		id:            id,
		audit:         logging.AuditWithEngine(id),
	}
}

// ID returns the engine instance id used for audit correlation.
func (e *Engine) ID() string {
	return e.id
}

// Register validates a shortcut and stores it keyed by id.
// Returns false (and leaves the registry untouched) if validation fails.
// Re-registering an existing id overwrites the stored shortcut; fields
// are never merged.
func (e *Engine) Register(s *Shortcut) bool {
	if s == nil || !s.Validate() {
		id := ""
		if s != nil {
			id = s.ID
		}
		logging.RegistryDebug("rejected shortcut %q (validation failed)", id)
		e.audit.RegisterReject(id)
		return false
	}

	e.mu.Lock()
	_, overwrite := e.shortcuts[s.ID]
	e.shortcuts[s.ID] = s
	e.mu.Unlock()

	logging.Registry("registered shortcut %q (action=%s confidence=%.2f citations=%d overwrite=%v)",
		s.ID, s.Action, s.Confidence, len(s.Citations), overwrite)
	e.audit.ShortcutRegistered(s.ID, s.Action, s.Confidence)
	return true
}

// Execute looks up a shortcut by id and records an execution.
// The second return value is false when the id is not registered; a miss
// never touches the log. On a hit the record is appended to the log and
// returned, carrying the caller's context verbatim.
func (e *Engine) Execute(id string, context map[string]any) (*ExecutionRecord, bool) {
	e.mu.RLock()
	s, ok := e.shortcuts[id]
	e.mu.RUnlock()
	if !ok {
		logging.ExecutionDebug("shortcut %q not registered", id)
		e.audit.ExecuteMiss(id)
		return nil, false
	}

	if context == nil {
		context = map[string]any{}
	}
	metadata := s.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	rec := ExecutionRecord{
		NodeID:     id,
		Action:     s.Action,
		Confidence: s.Confidence,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Citations:  flattenCitations(s.Citations),
		Metadata:   metadata,
		Context:    context,
	}

	e.logMu.Lock()
	e.executionLog = append(e.executionLog, rec)
	e.logMu.Unlock()

	logging.Execution("executed shortcut %q (action=%s confidence=%.2f)", id, s.Action, s.Confidence)
	e.audit.ShortcutExecuted(id, s.Action, s.Confidence)
	return &rec, true
}

// Get returns a registered shortcut by id.
func (e *Engine) Get(id string) (*Shortcut, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.shortcuts[id]
	return s, ok
}

// Has reports whether a shortcut with the given id is registered.
func (e *Engine) Has(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.shortcuts[id]
	return ok
}

// Count returns the number of registered shortcuts.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.shortcuts)
}

// ExportSnapshot returns the schema summary of the current registry:
// a reduced view per shortcut (citation count only, not contents) and the
// total number of executions so far. Read-only; state is not mutated.
func (e *Engine) ExportSnapshot() *Snapshot {
	e.mu.RLock()
	shortcuts := make(map[string]ShortcutSummary, len(e.shortcuts))
	for id, s := range e.shortcuts {
		metadata := s.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		shortcuts[id] = ShortcutSummary{
			Pattern:           s.Pattern,
			Action:            s.Action,
			Confidence:        s.Confidence,
			VerifiedCitations: len(s.Citations),
			Metadata:          metadata,
		}
	}
	e.mu.RUnlock()

	e.logMu.Lock()
	total := len(e.executionLog)
	e.logMu.Unlock()

	logging.ExportDebug("snapshot exported (shortcuts=%d executions=%d)", len(shortcuts), total)
	e.audit.SnapshotExport(len(shortcuts), total)

	return &Snapshot{
		SchemaVersion:   e.schemaVersion,
		Shortcuts:       shortcuts,
		TotalExecutions: total,
	}
}

// Log returns a deep copy of the execution log in append order.
// Mutating the returned slice or its records never affects engine state.
func (e *Engine) Log() []ExecutionRecord {
	e.logMu.Lock()
	defer e.logMu.Unlock()

	out := make([]ExecutionRecord, len(e.executionLog))
	for i, rec := range e.executionLog {
		out[i] = rec.clone()
	}
	return out
}

func flattenCitations(citations []Citation) []CitationRef {
	refs := make([]CitationRef, 0, len(citations))
	for _, c := range citations {
		refs = append(refs, c.Ref())
	}
	return refs
}
