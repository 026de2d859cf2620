// Package docs registers the OpenAPI description of the bug tracker API with
// swag so echo-swagger can serve it under /swagger/*.
//
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/bugs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bugs"],
                "summary": "List bugs",
                "description": "Returns every bug, newest first.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.bugListResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bugs"],
                "summary": "Report a bug",
                "parameters": [
                    {"type": "string", "description": "Replay protection key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Bug details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.bugRequest"}}
                ],
                "responses": {
                    "200": {"description": "Idempotent replay", "schema": {"$ref": "#/definitions/handler.bugResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.bugResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            }
        },
        "/bugs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bugs"],
                "summary": "Get a bug",
                "parameters": [{"type": "string", "description": "Bug id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.bugResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bugs"],
                "summary": "Update a bug",
                "description": "Replaces the editable fields of a bug. The reporter is kept when omitted.",
                "parameters": [
                    {"type": "string", "description": "Bug id", "name": "id", "in": "path", "required": true},
                    {"description": "Bug details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.bugRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.bugResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["bugs"],
                "summary": "Delete a bug",
                "parameters": [{"type": "string", "description": "Bug id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.bugDeletedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            }
        },
        "/bugs/{id}/activity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bugs"],
                "summary": "Bug activity",
                "description": "Audit trail of a bug, newest first. Entries remain after the bug is deleted.",
                "parameters": [{"type": "string", "description": "Bug id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.activityListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        },
        "/users": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a user",
                "parameters": [{"description": "Account details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.registerResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Login",
                "parameters": [{"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Bug": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "title": {"type": "string", "minLength": 5, "maxLength": 100},
                "description": {"type": "string", "minLength": 10},
                "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "status": {"type": "string", "enum": ["open", "in-progress", "resolved"]},
                "assignee": {"type": "string", "x-nullable": true},
                "createdBy": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "domain.BugActivity": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "bugId": {"type": "string"},
                "action": {"type": "string", "enum": ["created", "updated", "deleted"]},
                "title": {"type": "string"},
                "status": {"type": "string"},
                "severity": {"type": "string"},
                "actor": {"type": "string"},
                "occurredAt": {"type": "string", "format": "date-time"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "handler.ErrorBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "timestamp": {"type": "string"},
                "stack": {"type": "string"}
            }
        },
        "handler.ErrorEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/handler.ErrorBody"}
            }
        },
        "handler.bugRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "severity": {"type": "string"},
                "status": {"type": "string"},
                "assignee": {"type": "string", "x-nullable": true},
                "createdBy": {"type": "string"}
            }
        },
        "handler.bugResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"$ref": "#/definitions/domain.Bug"}
            }
        },
        "handler.bugListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "count": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Bug"}}
            }
        },
        "handler.bugDeletedResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/domain.Bug"}
            }
        },
        "handler.activityListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "count": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.BugActivity"}}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.registerResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Bug Tracker API",
	Description:      "REST API for reporting and tracking software bugs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
