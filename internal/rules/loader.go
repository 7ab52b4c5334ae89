// Package rules loads shortcut definitions from YAML rule files into an
// engine, and can watch those files for changes.
//
// A rule file holds a list of shortcut specs; citations may either carry
// inline content (hashed at load time) or a pre-computed content hash.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comet/internal/engine"
	"comet/internal/logging"

	"gopkg.in/yaml.v3"
)

// File is the top-level shape of a rule file.
type File struct {
	Shortcuts []Spec `yaml:"shortcuts"`
}

// Spec is the YAML shape of one shortcut definition.
type Spec struct {
	ID         string         `yaml:"id"`
	Pattern    string         `yaml:"pattern"`
	Action     string         `yaml:"action"`
	Confidence float64        `yaml:"confidence"`
	Citations  []CitationSpec `yaml:"citations"`
	Metadata   map[string]any `yaml:"metadata"`
}

// CitationSpec is the YAML shape of one citation. Exactly one of Content
// or ContentHash must be set: inline content is digested at load time,
// a pre-computed hash is taken as-is.
type CitationSpec struct {
	SourceID    string `yaml:"source_id"`
	Content     string `yaml:"content"`
	ContentHash string `yaml:"content_hash"`
	Method      string `yaml:"method"`
}

// Loader parses rule files and registers their shortcuts.
type Loader struct{}

// NewLoader creates a rule file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile parses one YAML rule file and registers its shortcuts into eng.
// Invalid entries are logged and skipped; registration stays per-entry
// atomic. Returns the number of shortcuts registered.
func (l *Loader) LoadFile(path string, eng *engine.Engine) (int, error) {
	timer := logging.StartTimer(logging.CategoryRules, "LoadFile")
	defer timer.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}

	logging.Rules("parsed %d shortcut specs from %s", len(file.Shortcuts), filepath.Base(path))

	registered := 0
	skipped := 0
	for _, spec := range file.Shortcuts {
		shortcut, err := buildShortcut(spec)
		if err != nil {
			logging.RulesWarn("skipping shortcut %q in %s: %v", spec.ID, filepath.Base(path), err)
			skipped++
			continue
		}
		if !eng.Register(shortcut) {
			logging.RulesWarn("skipping shortcut %q in %s: validation failed", spec.ID, filepath.Base(path))
			skipped++
			continue
		}
		registered++
	}

	logging.Rules("registered %d/%d shortcuts from %s", registered, len(file.Shortcuts), filepath.Base(path))
	logging.Audit().RulesLoaded(path, registered, skipped)
	return registered, nil
}

// LoadDir walks a directory and loads every .yaml/.yml file in it.
// Returns the total number of shortcuts registered.
func (l *Loader) LoadDir(dir string, eng *engine.Engine) (int, error) {
	timer := logging.StartTimer(logging.CategoryRules, "LoadDir")
	defer timer.Stop()

	total := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isRuleFile(path) {
			return nil
		}

		registered, loadErr := l.LoadFile(path, eng)
		if loadErr != nil {
			logging.RulesWarn("failed to load %s: %v", path, loadErr)
			return nil // Continue processing other files
		}
		total += registered
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("failed to walk rule directory %s: %w", dir, err)
	}

	logging.Rules("loaded %d shortcuts from directory %s", total, dir)
	return total, nil
}

// LoadPath loads either a rule file or a rule directory.
func (l *Loader) LoadPath(path string, eng *engine.Engine) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat rule path %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadDir(path, eng)
	}
	return l.LoadFile(path, eng)
}

// buildShortcut converts a YAML spec into an engine Shortcut.
func buildShortcut(spec Spec) (*engine.Shortcut, error) {
	citations := make([]engine.Citation, 0, len(spec.Citations))
	for i, cs := range spec.Citations {
		citation, err := buildCitation(cs)
		if err != nil {
			return nil, fmt.Errorf("citation %d: %w", i, err)
		}
		citations = append(citations, citation)
	}

	return &engine.Shortcut{
		ID:         spec.ID,
		Pattern:    spec.Pattern,
		Action:     spec.Action,
		Confidence: spec.Confidence,
		Citations:  citations,
		Metadata:   spec.Metadata,
	}, nil
}

func buildCitation(cs CitationSpec) (engine.Citation, error) {
	switch {
	case cs.ContentHash != "":
		return engine.NewCitation(cs.SourceID, cs.ContentHash, cs.Method)
	case cs.Content != "":
		return engine.CreateCitationWithMethod(cs.SourceID, cs.Content, orDefault(cs.Method))
	default:
		return engine.Citation{}, fmt.Errorf("citation %q has neither content nor content_hash", cs.SourceID)
	}
}

func orDefault(method string) string {
	if method == "" {
		return engine.DefaultMethod
	}
	return method
}

func isRuleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
