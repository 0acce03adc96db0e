// Package portal holds the Swagger document served under /swagger/.
// Regenerate with: swag init -g internal/portal/http/router.go -o api/portal
package portal

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/portal"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/user": {
            "get": {
                "description": "Returns the ID token claims of the logged in user verbatim",
                "produces": ["application/json"],
                "tags": ["User"],
                "summary": "Current user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": true}
                    },
                    "302": {"description": "redirect to /login when there is no session"}
                }
            }
        },
        "/api/user-apps": {
            "get": {
                "description": "Lists the non-administrative applications the user may open, either global or granted through a permission,\ntogether with the user's linked identity connections. Upstream read failures degrade to empty lists.",
                "produces": ["application/json"],
                "tags": ["User"],
                "summary": "Applications visible to the current user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/domain.UserApps"}
                    },
                    "302": {"description": "redirect to /login when there is no session"},
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/callback": {
            "get": {
                "description": "Validates state, exchanges the code, verifies the ID token and starts a session",
                "tags": ["Auth"],
                "summary": "Login callback",
                "parameters": [
                    {"type": "string", "description": "authorization code", "name": "code", "in": "query", "required": true},
                    {"type": "string", "description": "state echoed by the provider", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Found"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Always returns 200 while the process is running",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/login": {
            "get": {
                "description": "Redirects to the identity provider. returnTo must be a local path.",
                "tags": ["Auth"],
                "summary": "Start login",
                "parameters": [
                    {"type": "string", "description": "local path to return to after login", "name": "returnTo", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        },
        "/logout": {
            "get": {
                "description": "Ends the local session and redirects to the provider logout endpoint",
                "tags": ["Auth"],
                "summary": "Logout",
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Checks the session database and that provider discovery has completed",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AuthorizedApp": {
            "type": "object",
            "properties": {
                "app_type": {"type": "string"},
                "callback_url": {"type": "string", "x-nullable": true},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "logo_uri": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "domain.UserApps": {
            "type": "object",
            "properties": {
                "applications": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/domain.AuthorizedApp"}
                },
                "connections": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/mgmtsdk.Identity"}
                }
            }
        },
        "http.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "provider": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/http.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "mgmtsdk.Identity": {
            "type": "object",
            "properties": {
                "connection": {"type": "string"},
                "isSocial": {"type": "boolean"},
                "profileData": {"type": "object"},
                "provider": {"type": "string"},
                "user_id": {"description": "string or number, as sent by the provider"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "App Portal API",
	Description:      "Lists the applications and single sign-on connections a logged in user may use.\nAll /api routes require a session cookie obtained through /login.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
