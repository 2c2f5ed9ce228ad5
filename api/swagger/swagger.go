package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PMS Clinic Reservation API",
        "description": "First-come-first-served clinic seat reservation engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Clinics", "description": "Seat reservation and weekly schedule"},
        {"name": "Attendances", "description": "Attendance ledger management"}
    ],
    "paths": {
        "/clinics/reserve": {
            "post": {
                "tags": ["Clinics"],
                "summary": "Reserve a seat on a clinic's next weekly occurrence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReservePayload"}}
                ],
                "responses": {
                    "200": {"description": "Seat reserved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Capacity exceeded, already reserved, or lock contention"},
                    "429": {"description": "Rate limited"}
                }
            }
        },
        "/clinics/cancel": {
            "post": {
                "tags": ["Clinics"],
                "summary": "Cancel an existing reservation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReservePayload"}}
                ],
                "responses": {
                    "200": {"description": "Reservation cancelled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No reservation to cancel"},
                    "403": {"description": "Cancellation disabled"}
                }
            }
        },
        "/clinics/weekly-schedule": {
            "get": {
                "tags": ["Clinics"],
                "summary": "Weekly schedule grid of all active clinics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clinics/today": {
            "get": {
                "tags": ["Clinics"],
                "summary": "Clinics occurring today",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendances": {
            "get": {
                "tags": ["Attendances"],
                "summary": "List attendance records",
                "parameters": [
                    {"name": "clinic_id", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendances/bulk-create-today": {
            "post": {
                "tags": ["Attendances"],
                "summary": "Create attendance records for a clinic's roster today",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkCreatePayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendances/{id}": {
            "patch": {
                "tags": ["Attendances"],
                "summary": "Update an attendance outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAttendancePayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Record not found"}
                }
            },
            "delete": {
                "tags": ["Attendances"],
                "summary": "Delete an attendance record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Record not found"}
                }
            }
        },
        "/attendances/export": {
            "get": {
                "tags": ["Attendances"],
                "summary": "Export attendance records as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "clinic_id", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "ReservePayload": {
            "type": "object",
            "properties": {
                "clinic_id": {"type": "string"},
                "student_id": {"type": "string"}
            },
            "required": ["clinic_id"]
        },
        "BulkCreatePayload": {
            "type": "object",
            "properties": {
                "clinic_id": {"type": "string"}
            },
            "required": ["clinic_id"]
        },
        "UpdateAttendancePayload": {
            "type": "object",
            "properties": {
                "attendance_type": {"type": "string", "enum": ["attended", "absent", "sick", "late", "none"]}
            },
            "required": ["attendance_type"]
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
