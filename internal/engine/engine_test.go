package engine

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewEngine(t *testing.T) {
	eng := New()
	if eng == nil {
		t.Fatal("New returned nil")
	}
	if eng.Count() != 0 {
		t.Errorf("new engine should be empty, got %d shortcuts", eng.Count())
	}
	if len(eng.Log()) != 0 {
		t.Errorf("new engine should have an empty log, got %d records", len(eng.Log()))
	}
	if eng.ID() == "" {
		t.Error("engine should have a non-empty instance id")
	}
}

func TestRegisterAndGet(t *testing.T) {
	eng := New()

	s := &Shortcut{
		ID:         "github_notifications",
		Pattern:    "github.com/notifications",
		Action:     "optimize_notifications",
		Confidence: 0.9,
	}

	if !eng.Register(s) {
		t.Fatal("Register returned false for a valid shortcut")
	}

	got, ok := eng.Get("github_notifications")
	if !ok {
		t.Fatal("Get returned false for registered shortcut")
	}
	if got.Action != "optimize_notifications" {
		t.Errorf("got action %q, want %q", got.Action, "optimize_notifications")
	}
	if !eng.Has("github_notifications") {
		t.Error("Has returned false for registered shortcut")
	}
}

func TestRegisterValidation(t *testing.T) {
	eng := New()

	tests := []struct {
		name     string
		shortcut *Shortcut
	}{
		{name: "empty id", shortcut: &Shortcut{ID: "", Pattern: "p", Action: "a", Confidence: 0.5}},
		{name: "empty pattern", shortcut: &Shortcut{ID: "x", Pattern: "", Action: "a", Confidence: 0.5}},
		{name: "confidence too high", shortcut: &Shortcut{ID: "x", Pattern: "p", Action: "a", Confidence: 1.5}},
		{name: "confidence too low", shortcut: &Shortcut{ID: "x", Pattern: "p", Action: "a", Confidence: -0.1}},
		{name: "nil shortcut", shortcut: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if eng.Register(tt.shortcut) {
				t.Error("expected Register to return false")
			}
			if eng.Count() != 0 {
				t.Errorf("registry size changed on rejected registration: %d", eng.Count())
			}
		})
	}
}

func TestRegisterConfidenceBoundsInclusive(t *testing.T) {
	eng := New()

	if !eng.Register(&Shortcut{ID: "zero", Pattern: "p", Action: "a", Confidence: 0.0}) {
		t.Error("confidence 0.0 should be accepted")
	}
	if !eng.Register(&Shortcut{ID: "one", Pattern: "p", Action: "a", Confidence: 1.0}) {
		t.Error("confidence 1.0 should be accepted")
	}
	if eng.Count() != 2 {
		t.Errorf("expected 2 shortcuts, got %d", eng.Count())
	}
}

func TestRegisterOverwrites(t *testing.T) {
	eng := New()

	eng.Register(&Shortcut{ID: "sc", Pattern: "p", Action: "first", Confidence: 0.5})
	eng.Register(&Shortcut{ID: "sc", Pattern: "p2", Action: "second", Confidence: 0.7})

	if eng.Count() != 1 {
		t.Fatalf("expected 1 shortcut after overwrite, got %d", eng.Count())
	}
	got, _ := eng.Get("sc")
	if got.Action != "second" || got.Pattern != "p2" {
		t.Errorf("re-registration should overwrite, not merge: %+v", got)
	}
}

func TestExecute(t *testing.T) {
	eng := New()

	citation, err := CreateCitation("doc_1", "optimization pattern")
	if err != nil {
		t.Fatalf("CreateCitation failed: %v", err)
	}

	eng.Register(&Shortcut{
		ID:         "opt_1",
		Pattern:    "optimize",
		Action:     "execute_optimization",
		Confidence: 0.85,
		Citations:  []Citation{citation},
		Metadata:   map[string]any{"efficiency": "high"},
	})

	context := map[string]any{"user": "test_user", "page": "settings"}
	rec, ok := eng.Execute("opt_1", context)
	if !ok {
		t.Fatal("Execute returned absent for a registered shortcut")
	}

	if rec.NodeID != "opt_1" {
		t.Errorf("got node id %q, want %q", rec.NodeID, "opt_1")
	}
	if rec.Action != "execute_optimization" {
		t.Errorf("got action %q, want %q", rec.Action, "execute_optimization")
	}
	if rec.Confidence != 0.85 {
		t.Errorf("got confidence %v, want 0.85", rec.Confidence)
	}
	if rec.Timestamp == "" {
		t.Error("expected a fresh timestamp")
	}
	if len(rec.Citations) != 1 {
		t.Fatalf("expected 1 flattened citation, got %d", len(rec.Citations))
	}
	if rec.Citations[0].ContentHash != citation.ContentHash {
		t.Error("flattened citation should carry the content hash")
	}
	if diff := cmp.Diff(context, rec.Context); diff != "" {
		t.Errorf("context not echoed verbatim (-want +got):\n%s", diff)
	}
	if rec.Metadata["efficiency"] != "high" {
		t.Errorf("metadata bag not carried: %+v", rec.Metadata)
	}
}

func TestExecuteNotFound(t *testing.T) {
	eng := New()

	rec, ok := eng.Execute("nonexistent", map[string]any{})
	if ok || rec != nil {
		t.Error("expected absent result for unregistered id")
	}
	if len(eng.Log()) != 0 {
		t.Error("failed lookup must not grow the log")
	}
}

func TestExecutionLogOrder(t *testing.T) {
	eng := New()
	eng.Register(&Shortcut{ID: "log_test", Pattern: "test", Action: "test_action", Confidence: 0.5})

	for i := 1; i <= 3; i++ {
		if _, ok := eng.Execute("log_test", map[string]any{"run": i}); !ok {
			t.Fatalf("execute %d failed", i)
		}
	}

	log := eng.Log()
	if len(log) != 3 {
		t.Fatalf("expected log of length 3, got %d", len(log))
	}
	for i, rec := range log {
		if rec.Context["run"] != i+1 {
			t.Errorf("record %d echoes context %v, want run=%d", i, rec.Context, i+1)
		}
	}
}

func TestLogReturnsDefensiveCopy(t *testing.T) {
	eng := New()
	eng.Register(&Shortcut{ID: "copy_test", Pattern: "test", Action: "test", Confidence: 0.5})
	eng.Execute("copy_test", map[string]any{"k": "v"})

	log := eng.Log()

	// Mutate the returned slice and a record's maps.
	log = append(log, ExecutionRecord{NodeID: "fake"})
	log[0].Context["k"] = "tampered"
	log[0].Metadata["injected"] = true

	fresh := eng.Log()
	if len(fresh) != 1 {
		t.Fatalf("external append leaked into engine state: %d records", len(fresh))
	}
	if fresh[0].Context["k"] != "v" {
		t.Error("external context mutation leaked into engine state")
	}
	if _, ok := fresh[0].Metadata["injected"]; ok {
		t.Error("external metadata mutation leaked into engine state")
	}
}

func TestExportSnapshot(t *testing.T) {
	eng := New()
	eng.Register(&Shortcut{
		ID:         "export_test",
		Pattern:    "test_pattern",
		Action:     "test_action",
		Confidence: 0.75,
		Metadata:   map[string]any{"test": "value"},
	})
	eng.Execute("export_test", map[string]any{})

	snap := eng.ExportSnapshot()

	if snap.SchemaVersion != "1.0.0" {
		t.Errorf("got schema version %q, want 1.0.0", snap.SchemaVersion)
	}
	summary, ok := snap.Shortcuts["export_test"]
	if !ok {
		t.Fatal("snapshot missing registered shortcut")
	}
	if summary.Pattern != "test_pattern" || summary.Confidence != 0.75 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.VerifiedCitations != 0 {
		t.Errorf("expected citation count 0, got %d", summary.VerifiedCitations)
	}
	if snap.TotalExecutions != 1 {
		t.Errorf("got total_executions %d, want 1", snap.TotalExecutions)
	}
}

func TestSnapshotCountsExecutions(t *testing.T) {
	eng := New()
	eng.Register(&Shortcut{ID: "a", Pattern: "p", Action: "act", Confidence: 0.9})

	if got := eng.ExportSnapshot().TotalExecutions; got != 0 {
		t.Errorf("fresh engine should report 0 executions, got %d", got)
	}

	eng.Execute("a", map[string]any{"k": 1})
	eng.Execute("missing", map[string]any{}) // Miss must not count.
	eng.Execute("a", nil)

	if got := eng.ExportSnapshot().TotalExecutions; got != 2 {
		t.Errorf("expected 2 executions, got %d", got)
	}
}

// TestWorkedExample walks the end-to-end example from the engine contract.
func TestWorkedExample(t *testing.T) {
	eng := New()

	if !eng.Register(&Shortcut{ID: "a", Pattern: "p", Action: "act", Confidence: 0.9}) {
		t.Fatal("register failed")
	}

	rec, ok := eng.Execute("a", map[string]any{"k": 1})
	if !ok {
		t.Fatal("execute returned absent")
	}
	if rec.Action != "act" || rec.Confidence != 0.9 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Context["k"] != 1 {
		t.Errorf("context not echoed: %+v", rec.Context)
	}

	if _, ok := eng.Execute("missing", map[string]any{}); ok {
		t.Error("execute of unregistered id should be absent")
	}

	if got := eng.ExportSnapshot().TotalExecutions; got != 1 {
		t.Errorf("got total_executions %d, want 1", got)
	}
}

func TestExecutionRecordJSONShape(t *testing.T) {
	eng := New()
	citation, _ := CreateCitation("doc_1", "cited content")
	eng.Register(&Shortcut{
		ID:         "wire",
		Pattern:    "p",
		Action:     "act",
		Confidence: 0.5,
		Citations:  []Citation{citation},
	})

	rec, _ := eng.Execute("wire", map[string]any{"k": "v"})

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"node_id", "action", "confidence", "timestamp", "verified_citations", "design_implications", "context"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("serialized record missing key %q", key)
		}
	}

	citations := decoded["verified_citations"].([]any)
	first := citations[0].(map[string]any)
	for _, key := range []string{"source_id", "content_hash", "verification_method"} {
		if _, ok := first[key]; !ok {
			t.Errorf("flattened citation missing key %q", key)
		}
	}
	if _, ok := first["timestamp"]; ok {
		t.Error("flattened citation must drop the timestamp")
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	eng := New()
	eng.Register(&Shortcut{ID: "wire", Pattern: "p", Action: "act", Confidence: 0.5})

	data, err := json.Marshal(eng.ExportSnapshot())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded["schema_version"] != "1.0.0" {
		t.Errorf("got schema_version %v", decoded["schema_version"])
	}
	shortcuts := decoded["shortcuts"].(map[string]any)
	entry := shortcuts["wire"].(map[string]any)
	for _, key := range []string{"pattern", "action", "confidence", "verified_citations", "design_implications"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("snapshot entry missing key %q", key)
		}
	}
}

// TestConcurrentRegisterAndExecute smoke-tests the two-lock model: the
// registry map and the log are guarded independently.
func TestConcurrentRegisterAndExecute(t *testing.T) {
	eng := New()
	eng.Register(&Shortcut{ID: "hot", Pattern: "p", Action: "act", Confidence: 0.5})

	const workers = 8
	const iterations = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				eng.Register(&Shortcut{ID: "hot", Pattern: "p", Action: "act", Confidence: 0.5})
				eng.Execute("hot", map[string]any{"worker": n, "iter": j})
			}
		}(i)
	}
	wg.Wait()

	if got := len(eng.Log()); got != workers*iterations {
		t.Errorf("expected %d log entries, got %d", workers*iterations, got)
	}
	if eng.Count() != 1 {
		t.Errorf("expected 1 shortcut, got %d", eng.Count())
	}
}
