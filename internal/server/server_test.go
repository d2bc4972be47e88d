package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadena-rag/internal/domain"
)

// fakeEngine records calls and returns a fixed answer.
type fakeEngine struct {
	answer *domain.Answer
	err    error
	calls  int
	lastQ  string
	lastK  int
}

func (f *fakeEngine) Answer(_ context.Context, question string, k int) (*domain.Answer, error) {
	f.calls++
	f.lastQ = question
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func newTestServer(engine *fakeEngine) *Server {
	return New(engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postJSON(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/rag", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestQuery_MissingQuestionIsRejectedWithoutEngineCall(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(engine)

	for _, body := range []string{`{}`, `{"question": ""}`, `{"question": "   "}`} {
		rec := postJSON(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "question is required", errResp.Error)
	}
	assert.Zero(t, engine.calls, "no retrieval or completion for malformed requests")
}

func TestQuery_InvalidBodyIsRejected(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(engine)

	rec := postJSON(t, srv, `{"question":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, engine.calls)
}

func TestQuery_Success(t *testing.T) {
	engine := &fakeEngine{answer: &domain.Answer{
		Answer: "Kadena uses the Blake2s hash function.",
		Sources: []domain.Metadata{
			{Title: "Mining", Source: "mining.md"},
		},
	}}
	srv := newTestServer(engine)

	rec := postJSON(t, srv, `{"question": "What hash does Kadena use?", "numResults": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "What hash does Kadena use?", resp.Question)
	assert.Equal(t, "Kadena uses the Blake2s hash function.", resp.Answer)
	assert.Equal(t, []domain.Metadata{{Title: "Mining", Source: "mining.md"}}, resp.Sources)

	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, "What hash does Kadena use?", engine.lastQ)
	assert.Equal(t, 3, engine.lastK)
}

func TestQuery_NilSourcesSerializeAsEmptyArray(t *testing.T) {
	engine := &fakeEngine{answer: &domain.Answer{Answer: "no idea"}}
	srv := newTestServer(engine)

	rec := postJSON(t, srv, `{"question": "anything"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestQuery_EngineFailureReturnsErrorEnvelope(t *testing.T) {
	engine := &fakeEngine{err: errors.New("completion timed out")}
	srv := newTestServer(engine)

	rec := postJSON(t, srv, `{"question": "anything"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "failed to answer question", errResp.Error)
	assert.Contains(t, errResp.Details, "completion timed out")
}

func TestQuery_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/rag", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/rag/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}
