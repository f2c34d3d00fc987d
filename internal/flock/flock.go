// Package flock configures the engine's Flock LLM extension against a
// local Ollama server: reachability and model checks over HTTP, then
// the extension setup SQL through an engine session.
package flock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/seanchatmangpt/frozen-duckdb/internal/logger"
)

// Session is the SQL surface the manager drives. The CLI adapts an
// engine connection to it.
type Session interface {
	Exec(sql string) error
	// QueryStrings runs sql and returns the first column as strings,
	// skipping NULL cells.
	QueryStrings(sql string) ([]string, error)
}

// Model aliases registered with the extension. Flock SQL refers to
// models by alias, not by the underlying Ollama tag.
const (
	AliasTextModel      = "text_generator"
	AliasEmbeddingModel = "embedder"
)

// Options configures a Manager.
type Options struct {
	// OllamaURL is the base URL of the Ollama server.
	OllamaURL string
	// TextModel and EmbeddingModel are the Ollama tags to register.
	TextModel      string
	EmbeddingModel string

	HTTPClient *http.Client
	Log        *logger.Logger
}

// Manager drives Flock extension setup and status checks.
type Manager struct {
	session Session
	opts    Options
	client  *http.Client
	log     *logger.Logger
}

// NewManager builds a Manager over one engine session.
func NewManager(session Session, opts Options) *Manager {
	m := &Manager{
		session: session,
		opts:    opts,
		client:  opts.HTTPClient,
		log:     opts.Log,
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: 5 * time.Second}
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	return m
}

// OllamaModels asks the Ollama server which models are pulled. An
// error means the server is unreachable or answered garbage.
func (m *Manager) OllamaModels(ctx context.Context) ([]string, error) {
	url := strings.TrimRight(m.opts.OllamaURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama unreachable at %s: %w", m.opts.OllamaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags endpoint answered %s", resp.Status)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode ollama tags response: %w", err)
	}

	names := make([]string, 0, len(payload.Models))
	for _, model := range payload.Models {
		names = append(names, model.Name)
	}
	sort.Strings(names)
	return names, nil
}

// MissingModels reports which of the configured models are not pulled
// on the Ollama server.
func (m *Manager) MissingModels(ctx context.Context) ([]string, error) {
	available, err := m.OllamaModels(ctx)
	if err != nil {
		return nil, err
	}
	return m.missingFrom(available), nil
}

func (m *Manager) missingFrom(available []string) []string {
	pulled := make(map[string]bool, len(available))
	for _, name := range available {
		pulled[name] = true
	}

	var missing []string
	for _, want := range []string{m.opts.TextModel, m.opts.EmbeddingModel} {
		if want != "" && !pulled[want] {
			missing = append(missing, want)
		}
	}
	return missing
}

// Setup installs and loads the Flock extension, registers the Ollama
// secret and the two model aliases. Unless skipVerify is set, the
// Ollama server must be reachable with both models pulled before any
// SQL runs.
func (m *Manager) Setup(ctx context.Context, skipVerify bool) error {
	if !skipVerify {
		missing, err := m.MissingModels(ctx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("ollama models not pulled: %s (run `ollama pull`, or pass --skip-verification)",
				strings.Join(missing, ", "))
		}
	}

	m.log.Info("installing flock extension")
	if err := m.session.Exec("INSTALL flock FROM community"); err != nil {
		return fmt.Errorf("install flock extension: %w", err)
	}
	if err := m.session.Exec("LOAD flock"); err != nil {
		return fmt.Errorf("load flock extension: %w", err)
	}

	// Secret and model registrations collide when setup reruns in the
	// same database; the engine's diagnostic says so and the existing
	// registration keeps working, so collisions are logged, not fatal.
	secret := fmt.Sprintf("CREATE SECRET ollama_secret (TYPE OLLAMA, API_URL %s)", quoteString(m.opts.OllamaURL))
	if err := m.session.Exec(secret); err != nil {
		m.log.With().Err(err).Logger().Warn("create ollama secret skipped")
	}

	models := []struct{ alias, tag string }{
		{AliasTextModel, m.opts.TextModel},
		{AliasEmbeddingModel, m.opts.EmbeddingModel},
	}
	for _, model := range models {
		stmt := fmt.Sprintf("CREATE MODEL(%s, %s, 'ollama', {'tuple_format': 'json', 'batch_size': 32})",
			quoteString(model.alias), quoteString(model.tag))
		if err := m.session.Exec(stmt); err != nil {
			m.log.With().Str("alias", model.alias).Err(err).Logger().Warn("create model skipped")
			continue
		}
		m.log.With().Str("alias", model.alias).Str("tag", model.tag).Logger().Info("model registered")
	}
	return nil
}

// ExtensionLoaded reports whether the Flock extension is loaded in the
// session's database.
func (m *Manager) ExtensionLoaded() (bool, error) {
	names, err := m.session.QueryStrings(
		"SELECT extension_name FROM duckdb_extensions() WHERE loaded AND extension_name = 'flock'")
	if err != nil {
		return false, fmt.Errorf("query extensions: %w", err)
	}
	return len(names) > 0, nil
}

// Status is one snapshot of the Flock stack.
type Status struct {
	OllamaReachable bool
	OllamaModels    []string
	MissingModels   []string
	ExtensionLoaded bool
}

// Status collects the full picture: Ollama reachability, pulled and
// missing models, and whether the extension is loaded.
func (m *Manager) Status(ctx context.Context) Status {
	var st Status

	models, err := m.OllamaModels(ctx)
	if err == nil {
		st.OllamaReachable = true
		st.OllamaModels = models
		st.MissingModels = m.missingFrom(models)
	}

	loaded, err := m.ExtensionLoaded()
	if err == nil {
		st.ExtensionLoaded = loaded
	}
	return st
}

// quoteString single-quotes s for SQL, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
