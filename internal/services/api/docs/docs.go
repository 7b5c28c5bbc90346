// Package docs holds the registered OpenAPI document for the HTTP API.
// Regenerate with: swag init -g cmd/sitebuilder-api/main.go -o internal/services/api/docs --v3.1
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/sites/{siteID}/generate-content": {
            "post": {
                "tags": ["builds"],
                "summary": "Start a content build",
                "description": "Plans the build, records initial progress and returns while generation runs in the background",
                "parameters": [
                    {"name": "siteID", "in": "path", "required": true, "schema": {"type": "string"}},
                    {"name": "X-Internal-Auth", "in": "header", "required": false, "description": "Internal token marking a system trigger", "schema": {"type": "string"}}
                ],
                "responses": {
                    "202": {"description": "started", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.StartResult"}}}},
                    "400": {"description": "missing location or primary category", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}},
                    "401": {"description": "invalid internal token", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}},
                    "404": {"description": "site not found", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}},
                    "409": {"description": "build already in progress", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}}
                }
            }
        },
        "/sites/{siteID}/build-progress": {
            "get": {
                "tags": ["builds"],
                "summary": "Build progress",
                "parameters": [
                    {"name": "siteID", "in": "path", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ProgressView"}}}},
                    "404": {"description": "site not found", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}}
                }
            }
        },
        "/sites/{siteID}/artifacts": {
            "get": {
                "tags": ["builds"],
                "summary": "Generated content index",
                "security": [{"InternalAuth": []}],
                "parameters": [
                    {"name": "siteID", "in": "path", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ArtifactsView"}}}},
                    "401": {"description": "invalid internal token", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}}
                }
            }
        },
        "/meta/health": {
            "get": {"tags": ["Meta"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}
        },
        "/meta/ready": {
            "get": {"tags": ["Meta"], "summary": "Readiness probe with dependency checks", "responses": {"200": {"description": "ok"}}}
        },
        "/meta/version": {
            "get": {"tags": ["Meta"], "summary": "Build and version info", "responses": {"200": {"description": "ok"}}}
        },
        "/meta/build": {
            "get": {"tags": ["Meta"], "summary": "Build worker settings", "responses": {"200": {"description": "ok"}, "404": {"description": "no build worker", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.Envelope"}}}}}}
        }
    },
    "components": {
        "securitySchemes": {
            "InternalAuth": {"type": "apiKey", "in": "header", "name": "X-Internal-Auth"}
        },
        "schemas": {
            "domain.StartResult": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "example": "started"},
                    "total_tasks": {"type": "integer", "example": 7},
                    "run_id": {"type": "string", "format": "uuid"}
                }
            },
            "lifecycle.Progress": {
                "type": "object",
                "properties": {
                    "total_tasks": {"type": "integer"},
                    "completed_tasks": {"type": "integer"},
                    "current_task": {"type": "string"},
                    "started_at": {"type": "string", "format": "date-time"}
                }
            },
            "domain.ProgressView": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "enum": ["pending", "building", "active", "paused", "failed"]},
                    "build_progress": {"$ref": "#/components/schemas/lifecycle.Progress"},
                    "status_message": {"type": "string"},
                    "status_updated_at": {"type": "string", "format": "date-time"},
                    "percent": {"type": "integer", "example": 42},
                    "running": {"type": "boolean"}
                }
            },
            "domain.ArtifactsView": {
                "type": "object",
                "properties": {
                    "site_id": {"type": "string", "format": "uuid"},
                    "pages": {"type": "array", "items": {"type": "string"}},
                    "services": {"type": "array", "items": {"type": "string", "format": "uuid"}},
                    "areas": {"type": "array", "items": {"type": "string", "format": "uuid"}}
                }
            },
            "httpkit.Envelope": {
                "type": "object",
                "properties": {
                    "status_code": {"type": "integer"},
                    "status": {"type": "string"},
                    "code": {"type": "integer"},
                    "error": {"type": "string"},
                    "request_id": {"type": "string"},
                    "data": {}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Title:            "Sitebuilder API",
	Description:      "Content build orchestration for generated business sites",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
