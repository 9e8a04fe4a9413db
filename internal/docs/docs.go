// Package docs registers the OpenAPI description of the CORDIS API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/datasets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "List datasets",
                "responses": {"200": {"description": "Datasets"}}
            }
        },
        "/datasets/{name}/options": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Get filter options",
                "parameters": [{"type": "string", "description": "Dataset name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Filter options"},
                    "404": {"description": "Dataset not found"},
                    "422": {"description": "Dataset schema error"}
                }
            }
        },
        "/datasets/{name}/cache": {
            "delete": {
                "tags": ["datasets"],
                "summary": "Invalidate dataset cache",
                "parameters": [{"type": "string", "description": "Dataset name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Cache entry dropped"},
                    "404": {"description": "Dataset not found"}
                }
            }
        },
        "/reports": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "List reports",
                "responses": {"200": {"description": "Reports"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Create a report",
                "parameters": [{"description": "Report request", "name": "report", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ReportRequest"}}],
                "responses": {
                    "201": {"description": "Report"},
                    "400": {"description": "Invalid request payload"},
                    "404": {"description": "Dataset not found"},
                    "422": {"description": "Dataset schema error"},
                    "500": {"description": "Internal server error"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get a report",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Report"}, "404": {"description": "Report not found"}}
            }
        },
        "/reports/{id}/stages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get report stages",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Stages"}, "404": {"description": "Report not found"}}
            }
        },
        "/reports/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get report errors",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Errors"}, "404": {"description": "Report not found"}}
            }
        },
        "/reports/{id}/export": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["reports"],
                "summary": "Export filtered rows",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "CSV download"}, "404": {"description": "Report not found"}}
            }
        },
        "/reports/{id}/files": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List report files",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Files"}}
            }
        },
        "/reports/{id}/files/{filename}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download file",
                "parameters": [
                    {"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "File download"}, "404": {"description": "File not found"}}
            }
        }
    },
    "definitions": {
        "handler.ReportRequest": {
            "type": "object",
            "properties": {
                "dataset": {"type": "string"},
                "filters": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "top_n": {"type": "integer"},
                "growth_from": {"type": "integer"},
                "growth_to": {"type": "integer"},
                "export": {"type": "boolean"},
                "timeout": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CORDIS Reporting API",
	Description:      "Filters EU research-grant participation sheets and serves project aggregates, summaries and exports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
