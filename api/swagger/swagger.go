package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Studio Booking API",
        "description": "Recurring lesson scheduling engine: series, availability resolution, occurrence generation and conflict preview",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Series", "description": "Recurring lesson series"},
        {"name": "Generation", "description": "Occurrence generation and conflict preview"},
        {"name": "Occurrences", "description": "Generated lesson occurrences"},
        {"name": "Availability", "description": "Availability records and resolution"},
        {"name": "Blackouts", "description": "Calendar-wide closed periods"},
        {"name": "Exports", "description": "Asynchronous schedule-sheet exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Unavailable"}
                }
            }
        },
        "/series": {
            "get": {
                "tags": ["Series"],
                "summary": "List series",
                "parameters": [
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "boothId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Series"],
                "summary": "Create series",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSeriesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/{id}": {
            "get": {
                "tags": ["Series"],
                "summary": "Get series",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Series"],
                "summary": "Update series",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSeriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Series"],
                "summary": "Delete series",
                "description": "Generated occurrences are kept.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/series/{id}/generate": {
            "post": {
                "tags": ["Generation"],
                "summary": "Generate occurrences",
                "description": "Run one generation pass, materializing due occurrences up to the lead window.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/series/{id}/preview": {
            "get": {
                "tags": ["Generation"],
                "summary": "Preview conflicts",
                "description": "Report the conflicts a generation run would record, without writing anything.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "horizonDays", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/series/{id}/occurrences": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "List occurrences for a series",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue schedule export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download rendered export",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "403": {"description": "Invalid token"}
                }
            }
        },
        "/occurrences": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "List occurrences",
                "parameters": [
                    {"name": "seriesId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "boothId", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences/{id}": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "Get occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/occurrences/{id}/cancel": {
            "post": {
                "tags": ["Occurrences"],
                "summary": "Cancel occurrence",
                "description": "The row is kept so generation will not recreate the slot.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CancelOccurrenceRequest"}}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "409": {"description": "Already cancelled"}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List availability records",
                "parameters": [
                    {"name": "ownerId", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Create availability record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAvailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{id}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete availability record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/availability/{id}/status": {
            "put": {
                "tags": ["Availability"],
                "summary": "Update approval status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAvailabilityStatusRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"}
                }
            }
        },
        "/availability/resolve": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve effective availability",
                "parameters": [
                    {"name": "ownerId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/resolve-shared": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve shared availability",
                "parameters": [
                    {"name": "ownerA", "in": "query", "required": true, "type": "string"},
                    {"name": "ownerB", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/blackouts": {
            "get": {
                "tags": ["Blackouts"],
                "summary": "List blackout periods",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Blackouts"],
                "summary": "Create blackout period",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBlackoutRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/blackouts/{id}": {
            "delete": {
                "tags": ["Blackouts"],
                "summary": "Delete blackout period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        }
    },
    "definitions": {
        "CreateSeriesRequest": {
            "type": "object",
            "properties": {
                "branchId": {"type": "string"},
                "teacherId": {"type": "string"},
                "studentId": {"type": "string"},
                "boothId": {"type": "string"},
                "startDate": {"type": "string", "example": "2025-09-01"},
                "endDate": {"type": "string", "example": "2026-03-31"},
                "startTime": {"type": "string", "example": "10:00"},
                "durationMin": {"type": "integer", "example": 50},
                "weekdays": {"type": "array", "items": {"type": "string"}, "example": ["WEDNESDAY", "FRIDAY"]},
                "timezone": {"type": "string", "example": "America/New_York"},
                "policy": {"type": "string", "enum": ["STRICT", "HARD_ONLY", "LENIENT"]}
            },
            "required": ["branchId", "startDate", "startTime", "durationMin", "weekdays", "timezone"]
        },
        "UpdateSeriesRequest": {
            "type": "object",
            "properties": {
                "endDate": {"type": "string"},
                "startTime": {"type": "string"},
                "durationMin": {"type": "integer"},
                "weekdays": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["ACTIVE", "PAUSED"]},
                "policy": {"type": "string", "enum": ["STRICT", "HARD_ONLY", "LENIENT"]}
            }
        },
        "GenerateRequest": {
            "type": "object",
            "properties": {
                "leadWindowDays": {"type": "integer", "example": 30}
            }
        },
        "CancelOccurrenceRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "CreateAvailabilityRequest": {
            "type": "object",
            "properties": {
                "ownerId": {"type": "string"},
                "kind": {"type": "string", "enum": ["REGULAR", "EXCEPTION", "ABSENCE"]},
                "date": {"type": "string", "example": "2025-09-24"},
                "weekday": {"type": "string", "example": "WEDNESDAY"},
                "fullDay": {"type": "boolean"},
                "startTime": {"type": "string", "example": "09:00"},
                "endTime": {"type": "string", "example": "17:00"},
                "note": {"type": "string"}
            },
            "required": ["ownerId", "kind"]
        },
        "UpdateAvailabilityStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]}
            },
            "required": ["status"]
        },
        "CreateBlackoutRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"}
            },
            "required": ["label", "startDate", "endDate"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "horizonDays": {"type": "integer", "example": 90}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
