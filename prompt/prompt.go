// Package prompt loads instruction templates and fills their placeholders.
//
// Templates are plain text files named <name>.txt. A template is looked up
// in the configured directory first, then among the built-in defaults. A
// name found in neither resolves to [Fallback].
package prompt

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spetersoncode/chartflow/internal/logging"
)

// Template names used by the workflow steps.
const (
	GraphClassification = "graph-classification-instructions"
	SearchAnswer        = "search-answer-instructions"
	FormatData          = "format-data-instructions"
	GraphSelection      = "graph-selection-instructions"
)

// Fallback is used when no template with the requested name exists.
const Fallback = "Answer the user's query using the data below.\n\n{data}\n\nUser Query: {user_query}"

//go:embed defaults/*.txt
var defaults embed.FS

// Vars holds placeholder values. Only {data}, {user_query} and
// {search_results} are substituted; any other braces are left as written.
type Vars struct {
	Data          string
	UserQuery     string
	SearchResults string
}

// Render substitutes vars into tmpl.
func Render(tmpl string, vars Vars) string {
	return strings.NewReplacer(
		"{data}", vars.Data,
		"{user_query}", vars.UserQuery,
		"{search_results}", vars.SearchResults,
	).Replace(tmpl)
}

// Loader resolves templates by name. It is safe for concurrent use.
type Loader struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used to report missing templates.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader reading from dir. An empty dir uses only the
// built-in defaults.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:    dir,
		logger: logging.NewNop(),
		cache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the template directory.
func (l *Loader) Dir() string { return l.dir }

// Load returns the named template. A missing template is not an error.
func (l *Loader) Load(name string) string {
	l.mu.RLock()
	tmpl, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return tmpl
	}

	tmpl = l.resolve(name)

	l.mu.Lock()
	l.cache[name] = tmpl
	l.mu.Unlock()
	return tmpl
}

// Render loads the named template and substitutes vars.
func (l *Loader) Render(name string, vars Vars) string {
	return Render(l.Load(name), vars)
}

func (l *Loader) resolve(name string) string {
	file := name + ".txt"
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, file))
		if err == nil {
			return strings.TrimSpace(string(data))
		}
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("prompt template unreadable", "name", name, "dir", l.dir, "error", err)
		}
	}

	data, err := defaults.ReadFile("defaults/" + file)
	if err == nil {
		return strings.TrimSpace(string(data))
	}

	l.logger.Warn("prompt template not found, using fallback", "name", name)
	return Fallback
}
