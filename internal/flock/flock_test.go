package flock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records SQL and can fail selectively.
type fakeSession struct {
	stmts      []string
	failOn     string
	failErr    error
	extensions []string
	queryErr   error
}

func (s *fakeSession) Exec(sql string) error {
	s.stmts = append(s.stmts, sql)
	if s.failOn != "" && strings.Contains(sql, s.failOn) {
		return s.failErr
	}
	return nil
}

func (s *fakeSession) QueryStrings(sql string) ([]string, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.extensions, nil
}

// ollamaServer fakes the /api/tags endpoint.
func ollamaServer(t *testing.T, models ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		var entries []string
		for _, m := range models {
			entries = append(entries, `{"name":"`+m+`"}`)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[` + strings.Join(entries, ",") + `]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(session Session, url string) *Manager {
	return NewManager(session, Options{
		OllamaURL:      url,
		TextModel:      "qwen3-coder:30b",
		EmbeddingModel: "qwen3-embedding:8b",
	})
}

func TestOllamaModels(t *testing.T) {
	srv := ollamaServer(t, "qwen3-coder:30b", "llama3.1:8b")

	m := newTestManager(&fakeSession{}, srv.URL)
	models, err := m.OllamaModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.1:8b", "qwen3-coder:30b"}, models)
}

func TestOllamaModelsUnreachable(t *testing.T) {
	srv := ollamaServer(t)
	srv.Close()

	m := newTestManager(&fakeSession{}, srv.URL)
	_, err := m.OllamaModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestOllamaModelsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	m := newTestManager(&fakeSession{}, srv.URL)
	_, err := m.OllamaModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestMissingModels(t *testing.T) {
	srv := ollamaServer(t, "qwen3-coder:30b")

	m := newTestManager(&fakeSession{}, srv.URL)
	missing, err := m.MissingModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen3-embedding:8b"}, missing)
}

func TestSetupRunsSQLSequence(t *testing.T) {
	srv := ollamaServer(t, "qwen3-coder:30b", "qwen3-embedding:8b")
	session := &fakeSession{}

	m := newTestManager(session, srv.URL)
	require.NoError(t, m.Setup(context.Background(), false))

	require.GreaterOrEqual(t, len(session.stmts), 5)
	assert.Equal(t, "INSTALL flock FROM community", session.stmts[0])
	assert.Equal(t, "LOAD flock", session.stmts[1])
	assert.Contains(t, session.stmts[2], "CREATE SECRET ollama_secret")
	assert.Contains(t, session.stmts[2], "'"+srv.URL+"'")
	assert.Contains(t, session.stmts[3], "CREATE MODEL('text_generator', 'qwen3-coder:30b'")
	assert.Contains(t, session.stmts[4], "CREATE MODEL('embedder', 'qwen3-embedding:8b'")
}

func TestSetupRefusesWhenModelsMissing(t *testing.T) {
	srv := ollamaServer(t) // nothing pulled
	session := &fakeSession{}

	m := newTestManager(session, srv.URL)
	err := m.Setup(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pulled")
	assert.Empty(t, session.stmts, "no SQL may run before verification passes")
}

func TestSetupSkipVerification(t *testing.T) {
	// No Ollama server at all; skip-verification must still set up.
	session := &fakeSession{}
	m := newTestManager(session, "http://127.0.0.1:1")

	require.NoError(t, m.Setup(context.Background(), true))
	assert.NotEmpty(t, session.stmts)
}

func TestSetupToleratesExistingRegistrations(t *testing.T) {
	srv := ollamaServer(t, "qwen3-coder:30b", "qwen3-embedding:8b")
	session := &fakeSession{failOn: "CREATE MODEL", failErr: errors.New("already exists")}

	m := newTestManager(session, srv.URL)
	require.NoError(t, m.Setup(context.Background(), false))
}

func TestSetupFailsWhenInstallFails(t *testing.T) {
	srv := ollamaServer(t, "qwen3-coder:30b", "qwen3-embedding:8b")
	session := &fakeSession{failOn: "INSTALL flock", failErr: errors.New("no network")}

	m := newTestManager(session, srv.URL)
	err := m.Setup(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install flock extension")
}

func TestExtensionLoaded(t *testing.T) {
	m := newTestManager(&fakeSession{extensions: []string{"flock"}}, "")
	loaded, err := m.ExtensionLoaded()
	require.NoError(t, err)
	assert.True(t, loaded)

	m = newTestManager(&fakeSession{}, "")
	loaded, err = m.ExtensionLoaded()
	require.NoError(t, err)
	assert.False(t, loaded)

	m = newTestManager(&fakeSession{queryErr: errors.New("closed")}, "")
	_, err = m.ExtensionLoaded()
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	srv := ollamaServer(t, "qwen3-coder:30b")
	session := &fakeSession{extensions: []string{"flock"}}

	m := newTestManager(session, srv.URL)
	st := m.Status(context.Background())

	assert.True(t, st.OllamaReachable)
	assert.Equal(t, []string{"qwen3-coder:30b"}, st.OllamaModels)
	assert.Equal(t, []string{"qwen3-embedding:8b"}, st.MissingModels)
	assert.True(t, st.ExtensionLoaded)
}

func TestStatusUnreachableOllama(t *testing.T) {
	session := &fakeSession{}
	m := newTestManager(session, "http://127.0.0.1:1")

	st := m.Status(context.Background())
	assert.False(t, st.OllamaReachable)
	assert.Empty(t, st.OllamaModels)
	assert.False(t, st.ExtensionLoaded)
}
