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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/executor"
	"github.com/pgEdge/pgedge-nl2sql-server/internal/pipeline"
)

// mockPipelineManager implements PipelineManager for testing.
type mockPipelineManager struct {
	pipelines    map[string]pipeline.Info
	runErr       error
	knowledgeErr error
	lastQuestion string
	lastContent  string
	lastMetadata map[string]string
}

func newMockPipelineManager() *mockPipelineManager {
	return &mockPipelineManager{
		pipelines: map[string]pipeline.Info{
			"test-pipeline": {
				Name:        "test-pipeline",
				Description: "A test pipeline",
			},
		},
	}
}

func (m *mockPipelineManager) List() []pipeline.Info {
	infos := make([]pipeline.Info, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		infos = append(infos, p)
	}
	return infos
}

func (m *mockPipelineManager) Run(_ context.Context, name, question string) (*pipeline.Result, error) {
	if _, ok := m.pipelines[name]; !ok {
		return nil, pipeline.ErrPipelineNotFound
	}
	if m.runErr != nil {
		return nil, m.runErr
	}
	m.lastQuestion = question
	return &pipeline.Result{
		Question: question,
		SQLQuery: `SELECT COUNT(*) AS count FROM "StudentRecord";`,
		Results:  []executor.Row{{"count": 120}},
		Answer:   "There are 120 students.",
	}, nil
}

func (m *mockPipelineManager) AddKnowledge(
	_ context.Context,
	content string,
	metadata map[string]string,
) (string, error) {
	if m.knowledgeErr != nil {
		return "", m.knowledgeErr
	}
	m.lastContent = content
	m.lastMetadata = metadata
	return "Added 1 knowledge chunks to RAG system", nil
}

func (m *mockPipelineManager) Close() error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddress: "127.0.0.1",
			Port:          8080,
		},
		Pipelines: []config.Pipeline{
			{
				Name:        "test-pipeline",
				Description: "A test pipeline",
			},
		},
	}
}

func testServer() (*Server, *mockPipelineManager) {
	pm := newMockPipelineManager()
	return New(testConfig(), pm, nil), pm
}

func serve(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodGet, "/v1/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", resp.Status)
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodPost, "/v1/health", "")

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
}

func TestListPipelinesEndpoint(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodGet, "/v1/pipelines", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp PipelinesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Pipelines) != 1 {
		t.Fatalf("expected 1 pipeline, got %d", len(resp.Pipelines))
	}
	if resp.Pipelines[0].Name != "test-pipeline" {
		t.Errorf("expected pipeline name 'test-pipeline', got '%s'", resp.Pipelines[0].Name)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodGet, "/v1/schema", "")

	var resp SchemaResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Schema, "StudentRecord") {
		t.Errorf("expected schema to describe StudentRecord, got %q", resp.Schema)
	}
}

func TestExamplesEndpoint(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodGet, "/v1/examples", "")

	var resp ExamplesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Questions) != len(pipeline.ExampleQuestions()) {
		t.Errorf("expected %d questions, got %d",
			len(pipeline.ExampleQuestions()), len(resp.Questions))
	}
}

func TestPipelineEndpoint_Success(t *testing.T) {
	srv, pm := testServer()

	w := serve(srv, http.MethodPost, "/v1/pipelines/test-pipeline",
		`{"question": "How many students are there?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if pm.lastQuestion != "How many students are there?" {
		t.Errorf("unexpected question %q", pm.lastQuestion)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"question", "sql_query", "results", "answer"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("expected %q in response", key)
		}
	}
	if _, ok := resp["error"]; ok {
		t.Error("expected no error field on success")
	}
}

func TestPipelineEndpoint_NotFound(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodPost, "/v1/pipelines/nonexistent", `{"question": "test"}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "PIPELINE_NOT_FOUND" {
		t.Errorf("expected PIPELINE_NOT_FOUND, got %s", resp.Error.Code)
	}
}

func TestPipelineEndpoint_EmptyQuestion(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodPost, "/v1/pipelines/test-pipeline", `{"question": "  "}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPipelineEndpoint_InvalidJSON(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodPost, "/v1/pipelines/test-pipeline", `{invalid}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", resp.Error.Code)
	}
}

func TestPipelineEndpoint_RunFailure(t *testing.T) {
	srv, pm := testServer()
	pm.runErr = errors.New("boom")

	w := serve(srv, http.MethodPost, "/v1/pipelines/test-pipeline", `{"question": "q"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestKnowledgeEndpoint(t *testing.T) {
	srv, pm := testServer()

	w := serve(srv, http.MethodPost, "/v1/knowledge",
		`{"content": "Use ILIKE for names.", "metadata": {"source": "wiki"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp KnowledgeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "Added 1 knowledge chunks to RAG system" {
		t.Errorf("unexpected status %q", resp.Status)
	}
	if pm.lastContent != "Use ILIKE for names." || pm.lastMetadata["source"] != "wiki" {
		t.Errorf("unexpected forwarded knowledge %q %v", pm.lastContent, pm.lastMetadata)
	}
}

func TestKnowledgeEndpoint_Errors(t *testing.T) {
	srv, pm := testServer()

	w := serve(srv, http.MethodPost, "/v1/knowledge", `{"content": ""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for empty content, got %d", http.StatusBadRequest, w.Code)
	}

	pm.knowledgeErr = pipeline.ErrKnowledgeDisabled
	w = serve(srv, http.MethodPost, "/v1/knowledge", `{"content": "doc"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "KNOWLEDGE_DISABLED" {
		t.Errorf("expected KNOWLEDGE_DISABLED, got %s", resp.Error.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer()

	serve(srv, http.MethodGet, "/v1/health", "")
	w := serve(srv, http.MethodGet, "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "nl2sql_http_requests_total") {
		t.Error("expected HTTP request counter in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORS = config.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	srv := New(cfg, newMockPipelineManager(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/pipelines/test-pipeline", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allowed origin %q", got)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodGet, "/v1/health", "")
	minted := w.Header().Get(requestIDHeader)
	if minted == "" {
		t.Fatal("expected a generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("expected inbound request ID to be echoed, got %q", got)
	}
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{name: "none configured", origin: "http://a", want: ""},
		{name: "wildcard", origins: []string{"*"}, origin: "http://a", want: "*"},
		{name: "listed", origins: []string{"http://b", "http://a"}, origin: "http://a", want: "http://a"},
		{name: "unlisted", origins: []string{"http://b"}, origin: "http://a", want: ""},
		{name: "no origin header", origins: []string{"*"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Server.CORS.AllowedOrigins = tt.origins
			srv := New(cfg, newMockPipelineManager(), nil)

			if got := srv.allowedOrigin(tt.origin); got != tt.want {
				t.Errorf("allowedOrigin(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}

func TestOpenAPIEndpoint(t *testing.T) {
	srv, _ := testServer()

	w := serve(srv, http.MethodGet, "/v1/openapi.json", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	// Check Content-Type
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
	}

	var spec map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&spec); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if spec["openapi"] != "3.0.3" {
		t.Errorf("expected OpenAPI version '3.0.3', got '%v'", spec["openapi"])
	}

	paths, ok := spec["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("OpenAPI spec missing 'paths' field")
	}
	for _, p := range []string{"/health", "/schema", "/examples", "/pipelines", "/pipelines/{name}", "/knowledge"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("OpenAPI spec missing path %s", p)
		}
	}
}

func TestOpenAPIRefsResolve(t *testing.T) {
	spec := BuildOpenAPISpec()

	var check func(where string, s OpenAPISchema)
	check = func(where string, s OpenAPISchema) {
		if s.Ref != "" {
			name := strings.TrimPrefix(s.Ref, "#/components/schemas/")
			if _, ok := spec.Components.Schemas[name]; !ok {
				t.Errorf("%s: unresolved reference %s", where, s.Ref)
			}
		}
		for key, prop := range s.Properties {
			check(where+"."+key, prop)
		}
		if s.Items != nil {
			check(where+"[]", *s.Items)
		}
	}

	for name, s := range spec.Components.Schemas {
		check(name, s)
	}
	for path, item := range spec.Paths {
		for _, op := range []*OpenAPIOperation{item.Get, item.Post} {
			if op == nil {
				continue
			}
			if op.RequestBody != nil {
				for _, mt := range op.RequestBody.Content {
					check(path, mt.Schema)
				}
			}
			for code, resp := range op.Responses {
				for _, mt := range resp.Content {
					check(path+" "+code, mt.Schema)
				}
			}
		}
	}
}

func TestRFC8631LinkHeader(t *testing.T) {
	srv, _ := testServer()

	// Test that Link header is present on all API responses
	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/health"},
		{http.MethodGet, "/v1/pipelines"},
		{http.MethodGet, "/v1/schema"},
		{http.MethodGet, "/v1/openapi.json"},
	}

	for _, ep := range endpoints {
		w := serve(srv, ep.method, ep.path, "")

		link := w.Header().Get("Link")
		if link == "" {
			t.Errorf("%s %s: missing Link header", ep.method, ep.path)
			continue
		}
		if !strings.Contains(link, "</v1/openapi.json>") {
			t.Errorf("%s %s: Link header should reference /v1/openapi.json", ep.method, ep.path)
		}
		if !strings.Contains(link, `rel="service-desc"`) {
			t.Errorf("%s %s: Link header should have rel=\"service-desc\"", ep.method, ep.path)
		}
	}
}
