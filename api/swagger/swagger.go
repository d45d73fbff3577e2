package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Scheduling Core API",
        "description": "Room and class timetabling, semester calendars and staff identifier allocation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "tags": [
        {"name": "Schedules", "description": "Weekly slot booking with room and class overlap checks"},
        {"name": "Rooms", "description": "Room catalog, availability and timetables"},
        {"name": "Classes", "description": "Class sections and their timetables"},
        {"name": "Programs", "description": "Study programs and academic years"},
        {"name": "Semesters", "description": "Semester calendars per program"},
        {"name": "Identifiers", "description": "Sequential staff codes"},
        {"name": "Admin", "description": "Overlap audits"}
    ],
    "paths": {
        "/schedules": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Book a schedule slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown room or class", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room or class already booked", "schema": {"$ref": "#/definitions/ConflictEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get schedule slot",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Schedules"],
                "summary": "Update schedule slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ConflictEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Deactivate schedule slot",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "parameters": [
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "minCapacity", "in": "query", "type": "integer"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Register room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/available": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms free for a window",
                "parameters": [
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"},
                    {"name": "minCapacity", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/rooms/{id}": {
            "delete": {
                "tags": ["Rooms"],
                "summary": "Deactivate room",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/rooms/{id}/purge": {
            "delete": {
                "tags": ["Rooms"],
                "summary": "Permanently delete an unreferenced room",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Referenced by slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}/timetable": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Download a room's weekly timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/classes": {
            "post": {
                "tags": ["Classes"],
                "summary": "Register class section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassSectionRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classes/{id}/timetable": {
            "get": {
                "tags": ["Classes"],
                "summary": "Download a class section's weekly timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/programs": {
            "post": {
                "tags": ["Programs"],
                "summary": "Register program",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProgramRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/academic-years": {
            "post": {
                "tags": ["Programs"],
                "summary": "Register academic year",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAcademicYearRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Create semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSemesterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Dates overlap", "schema": {"$ref": "#/definitions/ConflictEnvelope"}}
                }
            }
        },
        "/semesters/{id}": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Get semester",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Semesters"],
                "summary": "Update semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSemesterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Dates overlap", "schema": {"$ref": "#/definitions/ConflictEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Semesters"],
                "summary": "Deactivate semester",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/semesters/{id}/purge": {
            "delete": {
                "tags": ["Semesters"],
                "summary": "Permanently delete an unreferenced semester",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Referenced by class sections", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/identifiers": {
            "post": {
                "tags": ["Identifiers"],
                "summary": "Allocate the next identifier for a prefix and year",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AllocateIdentifierRequest"}}
                ],
                "responses": {
                    "201": {"description": "Issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Retries or sequence space exhausted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff": {
            "post": {
                "tags": ["Identifiers"],
                "summary": "Register a staff member with a new code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStaffRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/invariants": {
            "get": {
                "tags": ["Admin"],
                "summary": "Audit active slots and semesters for overlaps",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "CreateScheduleRequest": {
            "type": "object",
            "required": ["class_id", "room_id", "day_of_week", "start_time", "end_time"],
            "properties": {
                "class_id": {"type": "integer"},
                "room_id": {"type": "integer"},
                "day_of_week": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"]},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:30"},
                "is_recurring": {"type": "boolean"},
                "active": {"type": "boolean"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "integer"},
                "room_id": {"type": "integer"},
                "day_of_week": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_recurring": {"type": "boolean"},
                "active": {"type": "boolean"}
            }
        },
        "CreateRoomRequest": {
            "type": "object",
            "required": ["code", "building", "capacity"],
            "properties": {
                "code": {"type": "string"},
                "building": {"type": "string"},
                "capacity": {"type": "integer", "minimum": 1, "maximum": 500}
            }
        },
        "CreateProgramRequest": {
            "type": "object",
            "required": ["code", "name"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "CreateAcademicYearRequest": {
            "type": "object",
            "required": ["label", "start_date", "end_date"],
            "properties": {
                "label": {"type": "string", "example": "2024/2025"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "CreateClassSectionRequest": {
            "type": "object",
            "required": ["section_name", "subject_id", "semester_id"],
            "properties": {
                "section_name": {"type": "string"},
                "subject_id": {"type": "integer"},
                "semester_id": {"type": "integer"}
            }
        },
        "CreateSemesterRequest": {
            "type": "object",
            "required": ["program_id", "academic_year_id", "semester_number", "year_number", "start_date", "end_date"],
            "properties": {
                "program_id": {"type": "integer"},
                "academic_year_id": {"type": "integer"},
                "semester_number": {"type": "integer", "minimum": 1, "maximum": 3},
                "year_number": {"type": "integer", "minimum": 1},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "active": {"type": "boolean"}
            }
        },
        "UpdateSemesterRequest": {
            "type": "object",
            "properties": {
                "program_id": {"type": "integer"},
                "academic_year_id": {"type": "integer"},
                "semester_number": {"type": "integer"},
                "year_number": {"type": "integer"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "active": {"type": "boolean"}
            }
        },
        "AllocateIdentifierRequest": {
            "type": "object",
            "required": ["prefix", "year"],
            "properties": {
                "prefix": {"type": "string", "example": "t"},
                "year": {"type": "integer", "example": 2024}
            }
        },
        "RegisterStaffRequest": {
            "type": "object",
            "required": ["full_name", "role"],
            "properties": {
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["TEACHER", "HEAD_OF_DEPARTMENT", "ADMINISTRATOR"]},
                "year": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "ConflictEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"},
                "details": {
                    "type": "object",
                    "properties": {
                        "type": {"type": "string"},
                        "message": {"type": "string"},
                        "conflict": {"type": "object"}
                    }
                }
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
