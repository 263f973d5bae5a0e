package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "Task management API used by the todobot chat bot",
        "title": "todobot API",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/api",
    "schemes": ["http"],
    "paths": {
        "/categories": {
            "get": {
                "tags": ["categories"],
                "summary": "List categories",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query", "description": "name, -name, created_at or -created_at"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Category"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["categories"],
                "summary": "Create category",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCategoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Category"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/categories/{id}": {
            "get": {
                "tags": ["categories"],
                "summary": "Get category",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Category"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["categories"],
                "summary": "Update category",
                "description": "PUT and PATCH both update only the supplied fields",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Category"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["categories"],
                "summary": "Delete category",
                "description": "Tasks in the category keep existing without a category",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "List tasks",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "status", "in": "query", "enum": ["pending", "in_progress", "completed", "cancelled"]},
                    {"type": "string", "name": "priority", "in": "query", "enum": ["low", "medium", "high", "urgent"]},
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "user", "in": "query"},
                    {"type": "integer", "name": "telegram_user_id", "in": "query"},
                    {"type": "boolean", "name": "overdue", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query", "description": "created_at, updated_at, due_date or priority, optionally prefixed with -"},
                    {"type": "integer", "name": "limit", "in": "query", "default": 20},
                    {"type": "integer", "name": "offset", "in": "query", "default": 0}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["tasks"],
                "summary": "Create task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["tasks"],
                "summary": "Get task",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["tasks"],
                "summary": "Update task",
                "description": "PUT and PATCH both update only the supplied fields; null clears category and due_date",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Delete task",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/mark_completed": {
            "patch": {
                "tags": ["tasks"],
                "summary": "Mark task completed",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/schedule_reminder": {
            "post": {
                "tags": ["tasks"],
                "summary": "Schedule a one-shot reminder",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleReminderRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ReminderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/by_telegram_user": {
            "get": {
                "tags": ["telegram"],
                "summary": "List a chat user's tasks",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "telegram_user_id", "in": "query", "required": true},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query", "default": 20},
                    {"type": "integer", "name": "offset", "in": "query", "default": 0}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/create_for_telegram": {
            "post": {
                "tags": ["telegram"],
                "summary": "Create a task for a chat user",
                "description": "Creates the chat user's placeholder account on first use",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TelegramTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/stats": {
            "get": {
                "tags": ["tasks"],
                "summary": "Task statistics",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "telegram_user_id", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaskStats"}}
                }
            }
        }
    },
    "definitions": {
        "Category": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "color": {"type": "string", "example": "#007bff"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "CreateCategoryRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "description": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "UpdateCategoryRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "description": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed", "cancelled"]},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
                "category": {"type": "string"},
                "category_name": {"type": "string"},
                "user": {"type": "string", "format": "uuid"},
                "user_username": {"type": "string"},
                "telegram_user_id": {"type": "integer"},
                "due_date": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "is_overdue": {"type": "boolean"}
            }
        },
        "TaskPage": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Task"}},
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "CreateTaskRequest": {
            "type": "object",
            "required": ["title", "user"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "category": {"type": "string"},
                "user": {"type": "string", "format": "uuid"},
                "telegram_user_id": {"type": "integer"},
                "due_date": {"type": "string", "format": "date-time"}
            }
        },
        "UpdateTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "category": {"type": "string"},
                "telegram_user_id": {"type": "integer"},
                "due_date": {"type": "string", "format": "date-time"}
            }
        },
        "TelegramTaskRequest": {
            "type": "object",
            "required": ["telegram_user_id", "title"],
            "properties": {
                "telegram_user_id": {"type": "integer"},
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"}
            }
        },
        "ScheduleReminderRequest": {
            "type": "object",
            "required": ["notify_at"],
            "properties": {
                "notify_at": {"type": "string", "format": "date-time"}
            }
        },
        "ReminderResponse": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "notify_at": {"type": "string", "format": "date-time"}
            }
        },
        "TaskStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "pending": {"type": "integer"},
                "in_progress": {"type": "integer"},
                "completed": {"type": "integer"},
                "cancelled": {"type": "integer"},
                "overdue": {"type": "integer"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and a service token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "todobot API",
	Description:      "Task management API used by the todobot chat bot",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
