//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/pipeline"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// PipelinesResponse is the response for the list pipelines endpoint.
type PipelinesResponse struct {
	Pipelines []pipeline.Info `json:"pipelines"`
}

// SchemaResponse is the response for the schema endpoint.
type SchemaResponse struct {
	Schema string `json:"schema"`
}

// ExamplesResponse is the response for the examples endpoint.
type ExamplesResponse struct {
	Questions []string `json:"questions"`
}

// QueryRequest is the body of a pipeline run.
type QueryRequest struct {
	Question string `json:"question"`
}

// KnowledgeRequest is the body of an add-knowledge call.
type KnowledgeRequest struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// KnowledgeResponse reports the outcome of an add-knowledge call.
type KnowledgeResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles the GET /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleListPipelines handles the GET /pipelines endpoint.
func (s *Server) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines := s.pipelines.List()
	s.respondJSON(w, http.StatusOK, PipelinesResponse{Pipelines: pipelines})
}

// handleSchema handles the GET /schema endpoint.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, SchemaResponse{Schema: s.schema})
}

// handleExamples handles the GET /examples endpoint.
func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, ExamplesResponse{Questions: pipeline.ExampleQuestions()})
}

// handlePipeline handles the POST /pipelines/{name} endpoint. Stage
// failures are part of a 200 response; only request problems and unknown
// pipelines are HTTP errors.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "pipeline name required")
		return
	}

	var req QueryRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
		return
	}

	result, err := s.pipelines.Run(r.Context(), name, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrPipelineNotFound):
			s.respondError(w, http.StatusNotFound, "PIPELINE_NOT_FOUND",
				"pipeline not found: "+name)
		case errors.Is(err, pipeline.ErrEmptyQuestion):
			s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			s.logger.Error("pipeline execution failed",
				"request_id", RequestID(r.Context()),
				"pipeline", name,
				"error", err)
			s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleAddKnowledge handles the POST /knowledge endpoint.
func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "content is required")
		return
	}

	status, err := s.pipelines.AddKnowledge(r.Context(), req.Content, req.Metadata)
	if err != nil {
		if errors.Is(err, pipeline.ErrKnowledgeDisabled) {
			s.respondError(w, http.StatusConflict, "KNOWLEDGE_DISABLED", err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, KnowledgeResponse{Status: status})
}

// decodeBody parses a JSON request body into v, responding with 400 on
// failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return false
	}
	return true
}

// respondJSON sends a JSON response with RFC 8631 Link header for API discovery.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	// RFC 8631: Link header for API documentation discovery
	w.Header().Set("Link", `</v1/openapi.json>; rel="service-desc"`)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response.
func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
