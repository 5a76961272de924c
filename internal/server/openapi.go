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
	"net/http"
)

// OpenAPISpec represents the OpenAPI v3 specification.
type OpenAPISpec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Servers    []OpenAPIServer        `json:"servers"`
	Paths      map[string]OpenAPIPath `json:"paths"`
	Components OpenAPIComponents      `json:"components"`
}

// OpenAPIInfo contains API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// OpenAPIServer describes a server.
type OpenAPIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIPath contains operations for a path.
type OpenAPIPath struct {
	Get    *OpenAPIOperation `json:"get,omitempty"`
	Post   *OpenAPIOperation `json:"post,omitempty"`
	Put    *OpenAPIOperation `json:"put,omitempty"`
	Delete *OpenAPIOperation `json:"delete,omitempty"`
}

// OpenAPIOperation describes an API operation.
type OpenAPIOperation struct {
	Summary     string                     `json:"summary"`
	Description string                     `json:"description,omitempty"`
	OperationID string                     `json:"operationId"`
	Tags        []string                   `json:"tags,omitempty"`
	Parameters  []OpenAPIParameter         `json:"parameters,omitempty"`
	RequestBody *OpenAPIRequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]OpenAPIResponse `json:"responses"`
}

// OpenAPIParameter describes a parameter.
type OpenAPIParameter struct {
	Name        string        `json:"name"`
	In          string        `json:"in"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required"`
	Schema      OpenAPISchema `json:"schema"`
}

// OpenAPIRequestBody describes a request body.
type OpenAPIRequestBody struct {
	Description string                      `json:"description,omitempty"`
	Required    bool                        `json:"required"`
	Content     map[string]OpenAPIMediaType `json:"content"`
}

// OpenAPIResponse describes a response.
type OpenAPIResponse struct {
	Description string                      `json:"description"`
	Content     map[string]OpenAPIMediaType `json:"content,omitempty"`
}

// OpenAPIMediaType describes a media type.
type OpenAPIMediaType struct {
	Schema OpenAPISchema `json:"schema"`
}

// OpenAPISchema describes a schema.
type OpenAPISchema struct {
	Type        string                   `json:"type,omitempty"`
	Format      string                   `json:"format,omitempty"`
	Description string                   `json:"description,omitempty"`
	Properties  map[string]OpenAPISchema `json:"properties,omitempty"`
	Items       *OpenAPISchema           `json:"items,omitempty"`
	Required    []string                 `json:"required,omitempty"`
	Default     any                      `json:"default,omitempty"`
	Ref         string                   `json:"$ref,omitempty"`
}

// OpenAPIComponents contains reusable components.
type OpenAPIComponents struct {
	Schemas map[string]OpenAPISchema `json:"schemas"`
}

// handleOpenAPI handles the GET /v1/openapi.json endpoint.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec := BuildOpenAPISpec()
	s.respondJSON(w, http.StatusOK, spec)
}

func ref(name string) OpenAPISchema {
	return OpenAPISchema{Ref: "#/components/schemas/" + name}
}

func jsonBody(schema OpenAPISchema) map[string]OpenAPIMediaType {
	return map[string]OpenAPIMediaType{
		"application/json": {Schema: schema},
	}
}

func jsonResponse(description, schemaName string) OpenAPIResponse {
	return OpenAPIResponse{
		Description: description,
		Content:     jsonBody(ref(schemaName)),
	}
}

func errorResponse(description string) OpenAPIResponse {
	return jsonResponse(description, "ErrorResponse")
}

// BuildOpenAPISpec constructs the OpenAPI v3 specification.
// This is exported so it can be used to generate static documentation.
func BuildOpenAPISpec() OpenAPISpec {
	return OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       "pgEdge NL2SQL Server API",
			Description: "REST API for answering natural-language questions with generated SQL",
			Version:     "1.0.0",
		},
		Servers: []OpenAPIServer{
			{
				URL:         "/v1",
				Description: "API v1",
			},
		},
		Paths: map[string]OpenAPIPath{
			"/health": {
				Get: &OpenAPIOperation{
					Summary:     "Health check",
					Description: "Check if the server is running and healthy",
					OperationID: "getHealth",
					Tags:        []string{"System"},
					Responses: map[string]OpenAPIResponse{
						"200": jsonResponse("Server is healthy", "HealthResponse"),
					},
				},
			},
			"/schema": {
				Get: &OpenAPIOperation{
					Summary:     "Database schema",
					Description: "Get the schema description used in generation prompts",
					OperationID: "getSchema",
					Tags:        []string{"System"},
					Responses: map[string]OpenAPIResponse{
						"200": jsonResponse("Schema description", "SchemaResponse"),
					},
				},
			},
			"/examples": {
				Get: &OpenAPIOperation{
					Summary:     "Example questions",
					Description: "Get questions the schema can answer",
					OperationID: "getExamples",
					Tags:        []string{"System"},
					Responses: map[string]OpenAPIResponse{
						"200": jsonResponse("Example questions", "ExamplesResponse"),
					},
				},
			},
			"/pipelines": {
				Get: &OpenAPIOperation{
					Summary:     "List pipelines",
					Description: "Get a list of all available NL2SQL pipelines",
					OperationID: "listPipelines",
					Tags:        []string{"Pipelines"},
					Responses: map[string]OpenAPIResponse{
						"200": jsonResponse("List of pipelines", "PipelinesResponse"),
					},
				},
			},
			"/pipelines/{name}": {
				Post: &OpenAPIOperation{
					Summary:     "Run pipeline",
					Description: "Generate SQL for a question, execute it and answer in natural language",
					OperationID: "runPipeline",
					Tags:        []string{"Pipelines"},
					Parameters: []OpenAPIParameter{
						{
							Name:        "name",
							In:          "path",
							Description: "Pipeline name",
							Required:    true,
							Schema: OpenAPISchema{
								Type: "string",
							},
						},
					},
					RequestBody: &OpenAPIRequestBody{
						Description: "Question to answer",
						Required:    true,
						Content:     jsonBody(ref("QueryRequest")),
					},
					Responses: map[string]OpenAPIResponse{
						"200": jsonResponse("Pipeline result", "PipelineResult"),
						"400": errorResponse("Invalid request"),
						"404": errorResponse("Pipeline not found"),
						"500": errorResponse("Server error"),
					},
				},
			},
			"/knowledge": {
				Post: &OpenAPIOperation{
					Summary:     "Add knowledge",
					Description: "Split, embed and store documentation used by retrieval pipelines",
					OperationID: "addKnowledge",
					Tags:        []string{"Knowledge"},
					RequestBody: &OpenAPIRequestBody{
						Description: "Knowledge to add",
						Required:    true,
						Content:     jsonBody(ref("KnowledgeRequest")),
					},
					Responses: map[string]OpenAPIResponse{
						"200": jsonResponse("Status message", "KnowledgeResponse"),
						"400": errorResponse("Invalid request"),
						"409": errorResponse("No pipeline uses retrieval"),
					},
				},
			},
		},
		Components: OpenAPIComponents{
			Schemas: map[string]OpenAPISchema{
				"HealthResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"status": {
							Type:        "string",
							Description: "Health status",
						},
					},
					Required: []string{"status"},
				},
				"SchemaResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"schema": {
							Type:        "string",
							Description: "Table and column description",
						},
					},
					Required: []string{"schema"},
				},
				"ExamplesResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"questions": {
							Type:  "array",
							Items: &OpenAPISchema{Type: "string"},
						},
					},
					Required: []string{"questions"},
				},
				"PipelinesResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"pipelines": {
							Type:        "array",
							Description: "List of available pipelines",
							Items: &OpenAPISchema{
								Ref: "#/components/schemas/PipelineInfo",
							},
						},
					},
					Required: []string{"pipelines"},
				},
				"PipelineInfo": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"name": {
							Type:        "string",
							Description: "Pipeline name",
						},
						"description": {
							Type:        "string",
							Description: "Pipeline description",
						},
						"retrieval": {
							Type:        "boolean",
							Description: "Whether documentation context is retrieved",
						},
					},
					Required: []string{"name", "retrieval"},
				},
				"QueryRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"question": {
							Type:        "string",
							Description: "The question to answer",
						},
					},
					Required: []string{"question"},
				},
				"PipelineResult": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"question": {
							Type:        "string",
							Description: "The question as asked",
						},
						"sql_query": {
							Type:        "string",
							Description: "Generated SQL; empty when generation failed",
						},
						"results": {
							Type:        "array",
							Description: "Result rows; mutations return one row with affected_rows",
							Items:       &OpenAPISchema{Type: "object"},
						},
						"answer": {
							Type:        "string",
							Description: "Natural-language answer or error explanation",
						},
						"error": {
							Type:        "string",
							Description: "Stage error message, if any",
						},
						"error_kind": {
							Type:        "string",
							Description: "generation or execution",
						},
						"context_docs": {
							Type:        "array",
							Description: "Retrieved documentation chunks (retrieval pipelines)",
							Items:       &OpenAPISchema{Type: "string"},
						},
						"rag_context": {
							Type:        "string",
							Description: "Retrieved chunks joined by blank lines",
						},
					},
					Required: []string{"question", "sql_query", "results", "answer"},
				},
				"KnowledgeRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"content": {
							Type:        "string",
							Description: "Documentation text",
						},
						"metadata": {
							Type:        "object",
							Description: "String metadata; defaults to source=user_added, type=custom",
						},
					},
					Required: []string{"content"},
				},
				"KnowledgeResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"status": {
							Type:        "string",
							Description: "Status message",
						},
					},
					Required: []string{"status"},
				},
				"ErrorResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"error": {
							Ref: "#/components/schemas/ErrorDetail",
						},
					},
					Required: []string{"error"},
				},
				"ErrorDetail": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"code": {
							Type:        "string",
							Description: "Error code",
						},
						"message": {
							Type:        "string",
							Description: "Error message",
						},
					},
					Required: []string{"code", "message"},
				},
			},
		},
	}
}
