// Package prompts stores the per-field prompt templates. Templates live as
// plain text files in a working directory so operators can tune them; any
// missing file is seeded from the embedded defaults on startup.
package prompts

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

//go:embed defaults/*.txt
var defaultTemplates embed.FS

// FieldNames are the template keys Aspen ships defaults for.
var FieldNames = []string{"title", "correspondent", "date", "doctype"}

// Repository loads prompt templates by field name, caching file contents
// after the first read.
type Repository struct {
	baseDir string

	mu    sync.Mutex
	cache map[string]string
}

func NewRepository(baseDir string) *Repository {
	if baseDir == "" {
		baseDir = "prompts"
	}
	return &Repository{
		baseDir: baseDir,
		cache:   make(map[string]string),
	}
}

// EnsureDefaults creates the prompts directory and copies the embedded
// default template for every field that has no file yet.
func (r *Repository) EnsureDefaults() error {
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return fmt.Errorf("create prompts dir: %w", err)
	}

	for _, field := range FieldNames {
		target := filepath.Join(r.baseDir, field+".txt")
		if _, err := os.Stat(target); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat prompt %s: %w", target, err)
		}

		content, err := defaultTemplates.ReadFile("defaults/" + field + ".txt")
		if err != nil {
			return fmt.Errorf("default prompt missing for %s: %w", field, err)
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return fmt.Errorf("write prompt %s: %w", target, err)
		}
	}
	return nil
}

// Get returns the template text for a field, normalized to LF line endings
// and trimmed.
func (r *Repository) Get(field string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[field]; ok {
		return cached, nil
	}

	path := filepath.Join(r.baseDir, field+".txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt template missing: %s", path)
		}
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}

	normalized := normalizeContent(string(raw))
	r.cache[field] = normalized
	return normalized, nil
}

func normalizeContent(content string) string {
	return strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{VARIABLE}} placeholders. Unrecognized placeholders
// render as the empty string.
func Render(template string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return variables[key]
	})
}
