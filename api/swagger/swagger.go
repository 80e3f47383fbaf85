package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Workflow API",
        "description": "Enrollment, course offering and grade workflows with semester locking and cumulative standing.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Semesters", "description": "Semester calendar and locking"},
        {"name": "Offerings", "description": "Course offerings and roll-number enrollment"},
        {"name": "Enrollments", "description": "Enrollment requests"},
        {"name": "Grades", "description": "Grade submission"},
        {"name": "Workflow", "description": "Status transitions, single and bulk"},
        {"name": "Advisors", "description": "Advisor assignments"},
        {"name": "Users", "description": "Student import"},
        {"name": "Students", "description": "Standing and transcripts"}
    ],
    "paths": {
        "/semesters": {
            "get": {
                "tags": ["Semesters"],
                "summary": "List semesters",
                "parameters": [
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "locked", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/lock": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Lock a semester and queue standing finalisation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"},
                    "423": {"description": "Already locked"}
                }
            }
        },
        "/offerings": {
            "get": {
                "tags": ["Offerings"],
                "summary": "List course offerings",
                "parameters": [
                    {"name": "semesterId", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "facultyId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Offerings"],
                "summary": "Propose a course offering",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposeOfferingRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "423": {"description": "Semester locked"}
                }
            }
        },
        "/offerings/{id}": {
            "get": {
                "tags": ["Offerings"],
                "summary": "Get offering",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/offerings/{id}/enrollments/bulk": {
            "post": {
                "tags": ["Offerings"],
                "summary": "Enroll students by roll number",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkEnrollPayload"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkResult"}}}
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments visible to the caller",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "offeringId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Request enrollment",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestEnrollmentRequest"}}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate request"}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grade records",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "offeringId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Grades"],
                "summary": "Submit a grade",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitGradeRequest"}}],
                "responses": {"201": {"description": "Created"}, "423": {"description": "Semester locked"}}
            }
        },
        "/workflow/{kind}/{id}/transitions": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Transition an entity to a new status",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["enrollments", "offerings", "grades"]},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TransitionResult"}},
                    "403": {"description": "Unauthorized transition"},
                    "409": {"description": "Invalid transition"},
                    "423": {"description": "Semester locked"}
                }
            }
        },
        "/workflow/{kind}/bulk": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Transition many entities with per-item outcomes",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["enrollments", "offerings", "grades"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkTransitionPayload"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkResult"}}}
            }
        },
        "/advisors/assignments": {
            "get": {
                "tags": ["Advisors"],
                "summary": "List advisor assignments",
                "parameters": [
                    {"name": "advisorId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Advisors"],
                "summary": "Assign an advisor to a student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignAdvisorRequest"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Student not found"}}
            }
        },
        "/advisors/assignments/bulk": {
            "post": {
                "tags": ["Advisors"],
                "summary": "Assign advisors in bulk",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAdvisorPayload"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkResult"}}}
            }
        },
        "/users/import": {
            "post": {
                "tags": ["Users"],
                "summary": "Import student accounts",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportStudentsPayload"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkResult"}}}
            }
        },
        "/students/{id}/standing": {
            "get": {
                "tags": ["Students"],
                "summary": "Get academic standing",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/students/{id}/transcript": {
            "get": {
                "tags": ["Students"],
                "summary": "Download transcript",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {"200": {"description": "File"}, "400": {"description": "Unsupported format"}}
            }
        }
    },
    "definitions": {
        "ProposeOfferingRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "semester_id": {"type": "string"},
                "faculty_id": {"type": "string"},
                "department_id": {"type": "string"},
                "allowed_departments": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["course_id", "semester_id", "department_id"]
        },
        "RequestEnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "offering_id": {"type": "string"},
                "type": {"type": "string", "enum": ["credit", "minor", "concentration"]}
            },
            "required": ["offering_id"]
        },
        "SubmitGradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "offering_id": {"type": "string"},
                "grade": {"type": "string"},
                "attempt": {"type": "integer"}
            },
            "required": ["student_id", "offering_id", "grade"]
        },
        "TransitionPayload": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "TransitionResult": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "id": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "changed": {"type": "boolean"},
                "entity": {"type": "object"}
            }
        },
        "EntityKey": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "offering_id": {"type": "string"}
            }
        },
        "BulkTransitionPayload": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}},
                "keys": {"type": "array", "items": {"$ref": "#/definitions/EntityKey"}},
                "status": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "BulkEnrollPayload": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["credit", "minor", "concentration"]},
                "roll_numbers": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["roll_numbers"]
        },
        "AssignAdvisorRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "roll_number": {"type": "string"},
                "advisor_id": {"type": "string"}
            },
            "required": ["advisor_id"]
        },
        "BulkAdvisorPayload": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/AssignAdvisorRequest"}}
            },
            "required": ["items"]
        },
        "ImportStudentItem": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "roll_number": {"type": "string"},
                "department_id": {"type": "string"}
            },
            "required": ["email", "full_name", "roll_number", "department_id"]
        },
        "ImportStudentsPayload": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/ImportStudentItem"}}
            },
            "required": ["items"]
        },
        "BulkFailure": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "key": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "BulkResult": {
            "type": "object",
            "properties": {
                "success_count": {"type": "integer"},
                "failed_count": {"type": "integer"},
                "failed": {"type": "array", "items": {"$ref": "#/definitions/BulkFailure"}}
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
