// Package logging - audit trail for registry operations.
// Audit events are JSON lines written alongside the category logs; each
// event carries a session id and, when scoped, the engine instance id,
// so multiple engines in one process can be told apart.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEventType defines the type of audit event.
type AuditEventType string

const (
	// Registration events
	AuditRegister       AuditEventType = "shortcut_register"
	AuditRegisterReject AuditEventType = "register_reject"

	// Execution events
	AuditExecute     AuditEventType = "shortcut_execute"
	AuditExecuteMiss AuditEventType = "execute_miss"

	// Export events
	AuditExport AuditEventType = "snapshot_export"

	// Rule file events
	AuditRulesLoad   AuditEventType = "rules_load"
	AuditRulesReload AuditEventType = "rules_reload"

	// Watcher lifecycle
	AuditWatchStart AuditEventType = "watch_start"
	AuditWatchStop  AuditEventType = "watch_stop"
)

// AuditEvent is a single structured audit entry.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"` // Unix milliseconds
	EventType  AuditEventType `json:"event"`
	SessionID  string         `json:"session"`          // Process-level correlation
	EngineID   string         `json:"engine,omitempty"` // Engine instance correlation
	Target     string         `json:"target"`           // Shortcut id, file path, ...
	Action     string         `json:"action,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Success    bool           `json:"success"`
	Message    string         `json:"msg"`
	Fields     map[string]any `json:"fields,omitempty"`
}

var (
	auditFile      *os.File
	auditMu        sync.Mutex
	auditSessionID string
	auditLogger    *AuditLogger
)

// AuditLogger writes structured audit events, optionally scoped to an engine.
type AuditLogger struct {
	engineID string
}

// InitAudit initializes the audit log. No-op in production mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file
	auditSessionID = uuid.NewString()

	header := fmt.Sprintf("# Audit log started at %s session=%s\n",
		time.Now().Format(time.RFC3339), auditSessionID)
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global, unscoped audit logger.
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithEngine creates an audit logger scoped to one engine instance.
func AuditWithEngine(engineID string) *AuditLogger {
	return &AuditLogger{engineID: engineID}
}

// Log writes an audit event, filling in timestamp and correlation defaults.
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" {
		event.SessionID = auditSessionID
	}
	if event.EngineID == "" && a.engineID != "" {
		event.EngineID = a.engineID
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// =============================================================================
// CONVENIENCE METHODS FOR COMMON EVENTS
// =============================================================================

// ShortcutRegistered logs a successful registration.
func (a *AuditLogger) ShortcutRegistered(id, action string, confidence float64) {
	a.Log(AuditEvent{
		EventType:  AuditRegister,
		Target:     id,
		Action:     action,
		Confidence: confidence,
		Success:    true,
		Message:    fmt.Sprintf("Shortcut registered: %s -> %s", id, action),
	})
}

// RegisterReject logs a validation failure on registration.
func (a *AuditLogger) RegisterReject(id string) {
	a.Log(AuditEvent{
		EventType: AuditRegisterReject,
		Target:    id,
		Success:   false,
		Message:   fmt.Sprintf("Shortcut rejected: %s", id),
	})
}

// ShortcutExecuted logs a successful execution.
func (a *AuditLogger) ShortcutExecuted(id, action string, confidence float64) {
	a.Log(AuditEvent{
		EventType:  AuditExecute,
		Target:     id,
		Action:     action,
		Confidence: confidence,
		Success:    true,
		Message:    fmt.Sprintf("Shortcut executed: %s -> %s", id, action),
	})
}

// ExecuteMiss logs an execution attempt for an unregistered id.
func (a *AuditLogger) ExecuteMiss(id string) {
	a.Log(AuditEvent{
		EventType: AuditExecuteMiss,
		Target:    id,
		Success:   false,
		Message:   fmt.Sprintf("Shortcut not found: %s", id),
	})
}

// SnapshotExport logs a snapshot export.
func (a *AuditLogger) SnapshotExport(shortcutCount, executionCount int) {
	a.Log(AuditEvent{
		EventType: AuditExport,
		Success:   true,
		Fields: map[string]any{
			"shortcuts":  shortcutCount,
			"executions": executionCount,
		},
		Message: fmt.Sprintf("Snapshot exported: %d shortcuts, %d executions", shortcutCount, executionCount),
	})
}

// RulesLoaded logs a rule file load.
func (a *AuditLogger) RulesLoaded(path string, registered, skipped int) {
	a.Log(AuditEvent{
		EventType: AuditRulesLoad,
		Target:    path,
		Success:   skipped == 0,
		Fields: map[string]any{
			"registered": registered,
			"skipped":    skipped,
		},
		Message: fmt.Sprintf("Rules loaded: %s (%d registered, %d skipped)", path, registered, skipped),
	})
}

// RulesReloaded logs a watcher-triggered reload.
func (a *AuditLogger) RulesReloaded(path string, registered int) {
	a.Log(AuditEvent{
		EventType: AuditRulesReload,
		Target:    path,
		Success:   true,
		Fields:    map[string]any{"registered": registered},
		Message:   fmt.Sprintf("Rules reloaded: %s (%d registered)", path, registered),
	})
}

// WatchEvent logs watcher start/stop.
func (a *AuditLogger) WatchEvent(eventType AuditEventType, target string) {
	a.Log(AuditEvent{
		EventType: eventType,
		Target:    target,
		Success:   true,
		Message:   fmt.Sprintf("Watcher %s: %s", eventType, target),
	})
}
