package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Weekly timetable generation, editing and leave substitution",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Auth", "description": "Access tokens"},
        {"name": "Catalog", "description": "Departments, teachers, classrooms, courses and allocations"},
        {"name": "Timetable", "description": "Generation, listing, manual moves and exports"},
        {"name": "Leave", "description": "Leave requests and substitutions"},
        {"name": "System", "description": "Operational endpoints"}
    ],
    "paths": {
        "/auth/tokens": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IssueTokenRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current token claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List departments",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create department",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDepartmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete department",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "dept_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeacherRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete teacher",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List classrooms",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create classroom",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassroomRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/classrooms/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete classroom",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses",
                "parameters": [{"name": "dept_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/allocations": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List allocations",
                "parameters": [{"name": "course_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Allocate teacher to course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAllocationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already allocated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete allocation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List timetable entries",
                "parameters": [
                    {"name": "dept_id", "in": "query", "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Clear timetable",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate weekly timetable",
                "parameters": [{"name": "async", "in": "query", "type": "boolean"}],
                "responses": {
                    "201": {"description": "Generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unsatisfiable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/jobs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Generation job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found"}}
            }
        },
        "/timetable/{id}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Move timetable entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict with suggestions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/reports": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Utilisation report",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/timetable/export/departments/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export department timetable",
                "produces": ["application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "xlsx", "csv"]}
                ],
                "responses": {"200": {"description": "File"}, "404": {"description": "Not found"}}
            }
        },
        "/leaves": {
            "get": {
                "tags": ["Leave"],
                "summary": "List leave requests",
                "parameters": [{"name": "status", "in": "query", "type": "string", "enum": ["Pending", "Approved", "Rejected"]}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Leave"],
                "summary": "Request leave",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLeaveRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/leaves/{id}/approve": {
            "post": {
                "tags": ["Leave"],
                "summary": "Approve leave and assign substitutes",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/reject": {
            "post": {
                "tags": ["Leave"],
                "summary": "Reject leave",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/substitutions": {
            "get": {
                "tags": ["Leave"],
                "summary": "Substitutions for a date",
                "parameters": [{"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Metrics snapshot",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "IssueTokenRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "TEACHER"]},
                "teacher_id": {"type": "string"}
            },
            "required": ["user_id", "role"]
        },
        "CreateDepartmentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"}
            },
            "required": ["name", "code"]
        },
        "CreateTeacherRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "dept_id": {"type": "string"},
                "workload_limit": {"type": "integer"}
            },
            "required": ["name"]
        },
        "CreateClassroomRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "capacity": {"type": "integer"},
                "type": {"type": "string", "enum": ["Classroom", "Lab"]}
            },
            "required": ["name", "capacity", "type"]
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "dept_id": {"type": "string"},
                "type": {"type": "string", "enum": ["Theory", "Practical", "Activity Class"]},
                "hours_per_week": {"type": "integer"}
            },
            "required": ["name", "code", "dept_id", "type", "hours_per_week"]
        },
        "CreateAllocationRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "teacher_id": {"type": "string"}
            },
            "required": ["course_id", "teacher_id"]
        },
        "MoveEntryRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "string"},
                "slot": {"type": "integer"},
                "classroom_id": {"type": "string"},
                "teacher_id": {"type": "string"}
            },
            "required": ["day_of_week", "slot", "classroom_id"]
        },
        "CreateLeaveRequest": {
            "type": "object",
            "properties": {
                "leave_date": {"type": "string", "format": "date"},
                "reason": {"type": "string"}
            },
            "required": ["leave_date", "reason"]
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
