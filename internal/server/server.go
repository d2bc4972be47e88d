package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"kadena-rag/internal/domain"
)

// Engine answers natural-language questions; satisfied by *service.Engine.
type Engine interface {
	Answer(ctx context.Context, question string, k int) (*domain.Answer, error)
}

// QueryRequest is the body of POST /api/rag.
type QueryRequest struct {
	Question   string `json:"question"`
	NumResults int    `json:"numResults,omitempty"`
}

// QueryResponse is the success payload of POST /api/rag.
type QueryResponse struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Sources  []domain.Metadata `json:"sources"`
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the readiness payload of GET /api/rag/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server serves the query API over HTTP.
type Server struct {
	engine Engine
	log    *slog.Logger
	mux    *http.ServeMux
}

func New(engine Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{engine: engine, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/rag", s.handleQuery)
	s.mux.HandleFunc("GET /api/rag/health", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required", "")
		return
	}

	s.log.Info("answering question", "question", req.Question, "numResults", req.NumResults)
	answer, err := s.engine.Answer(r.Context(), req.Question, req.NumResults)
	if err != nil {
		s.log.Error("query failed", "question", req.Question, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question", err.Error())
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []domain.Metadata{}
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Question: req.Question,
		Answer:   answer.Answer,
		Sources:  sources,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "kadena-rag is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}
