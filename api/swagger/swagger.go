package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Test & Tag Compliance API",
        "description": "REST API for electrical test-and-tag inspection sessions, asset numbering and compliance reporting.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and account management"},
        {"name": "Users", "description": "Technician and staff administration"},
        {"name": "Sessions", "description": "Inspection session lifecycle"},
        {"name": "Results", "description": "Per-item test results and asset numbering"},
        {"name": "Environments", "description": "Reusable per-technician item templates"},
        {"name": "Form Types", "description": "Custom form type catalogue"},
        {"name": "Reports", "description": "Asynchronous PDF/CSV report generation"}
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
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with username and password",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access and refresh tokens"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Self-register a technician account",
                "responses": {
                    "201": {"description": "Account created"},
                    "403": {"description": "Registration disabled"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Invalid or expired refresh token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Current user profile and resolved permissions",
                "responses": {
                    "200": {"description": "User info with permission list"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "security": [{"BearerAuth": []}],
                "summary": "List users",
                "responses": {
                    "200": {"description": "Paginated user list"},
                    "403": {"description": "Requires users:read"}
                }
            },
            "post": {
                "tags": ["Users"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a user",
                "responses": {
                    "201": {"description": "User created"},
                    "403": {"description": "Requires users:manage"}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "security": [{"BearerAuth": []}],
                "summary": "List inspection sessions visible to the caller",
                "parameters": [
                    {"name": "service_type", "in": "query", "type": "string", "enum": ["electrical", "emergency_exit_light", "fire_testing"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Paginated session list"}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "security": [{"BearerAuth": []}],
                "summary": "Start a new inspection session",
                "responses": {
                    "201": {"description": "Session created"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "security": [{"BearerAuth": []}],
                "summary": "Full session data with ordered results and summary",
                "responses": {
                    "200": {"description": "Session, results sorted by asset number, pass/fail summary"},
                    "404": {"description": "Session not found"}
                }
            },
            "put": {
                "tags": ["Sessions"],
                "security": [{"BearerAuth": []}],
                "summary": "Update session details",
                "responses": {
                    "200": {"description": "Updated session"}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete a session and all of its results",
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/sessions/{id}/summary": {
            "get": {
                "tags": ["Sessions"],
                "security": [{"BearerAuth": []}],
                "summary": "Pass/fail summary only",
                "responses": {
                    "200": {"description": "Totals and rounded pass rate"}
                }
            }
        },
        "/sessions/{id}/results": {
            "get": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Results for a session in display order",
                "responses": {
                    "200": {"description": "Results sorted by numeric asset number"}
                }
            },
            "post": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Record a single test result",
                "responses": {
                    "201": {"description": "Result created"},
                    "400": {"description": "Invalid or duplicate asset number"}
                }
            }
        },
        "/sessions/{id}/results/batch": {
            "post": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Submit a batch of results, skipping exact duplicates",
                "responses": {
                    "201": {"description": "All items created"},
                    "207": {"description": "Partial success with per-item outcomes"},
                    "400": {"description": "All items rejected"}
                }
            }
        },
        "/sessions/{id}/asset-numbers/next": {
            "get": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Next free asset number for a test frequency",
                "parameters": [
                    {"name": "frequency", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Smallest unused number in the frequency band"}
                }
            }
        },
        "/sessions/{id}/asset-numbers/validate": {
            "post": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Validate a candidate asset number",
                "responses": {
                    "200": {"description": "Number is available and in band"},
                    "400": {"description": "Duplicate, out of band or not a number"}
                }
            }
        },
        "/results/{id}": {
            "put": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Update a test result",
                "responses": {
                    "200": {"description": "Updated result"}
                }
            },
            "delete": {
                "tags": ["Results"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete a test result",
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/environments": {
            "get": {
                "tags": ["Environments"],
                "security": [{"BearerAuth": []}],
                "summary": "List the caller's environments",
                "responses": {
                    "200": {"description": "Environment list"}
                }
            },
            "post": {
                "tags": ["Environments"],
                "security": [{"BearerAuth": []}],
                "summary": "Create an environment template",
                "responses": {
                    "201": {"description": "Environment created"}
                }
            }
        },
        "/form-types": {
            "get": {
                "tags": ["Form Types"],
                "security": [{"BearerAuth": []}],
                "summary": "List custom form types",
                "responses": {
                    "200": {"description": "Form type list"}
                }
            },
            "post": {
                "tags": ["Form Types"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a form type",
                "responses": {
                    "201": {"description": "Form type created"},
                    "403": {"description": "Requires form-types:manage"},
                    "409": {"description": "Code already exists for the service type"}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "security": [{"BearerAuth": []}],
                "summary": "Queue a PDF or CSV compliance report",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job accepted"},
                    "403": {"description": "Session belongs to another technician"}
                }
            }
        },
        "/reports/status/{id}": {
            "get": {
                "tags": ["Reports"],
                "security": [{"BearerAuth": []}],
                "summary": "Poll report job status",
                "responses": {
                    "200": {"description": "Status, progress and download URL when finished"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report via signed token",
                "responses": {
                    "200": {"description": "PDF or CSV file"},
                    "401": {"description": "Expired or invalid token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["sessionId", "format"],
            "properties": {
                "sessionId": {"type": "string"},
                "format": {"type": "string", "enum": ["pdf", "csv"]}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
