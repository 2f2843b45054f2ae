// Package docs registers the inventory service OpenAPI document with swag.
// Regenerate with: swag init -g cmd/inventory/docs.go -o internal/inventory/docs
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
        "/health": {
            "get": {
                "description": "Check service health and database connectivity",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.Response"}}
                }
            }
        },
        "/inventory/restock": {
            "post": {
                "description": "Credit allocations from an earlier depletion back to their batches",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Inventory"],
                "summary": "Restock inventory",
                "parameters": [
                    {"description": "Allocations to return", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.RestockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.Response"}}
                }
            }
        },
        "/inventory/strategies": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Inventory"],
                "summary": "List depletion strategies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.Response"}}
                }
            }
        },
        "/inventory/update": {
            "post": {
                "description": "Deplete stock from batches in ascending expiry order with the given strategy (default STANDARD)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Inventory"],
                "summary": "Deplete inventory",
                "parameters": [
                    {"description": "Depletion request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.UpdateInventoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.Response"}}
                }
            }
        },
        "/inventory/{productId}": {
            "get": {
                "description": "Batches ordered by ascending expiry date",
                "produces": ["application/json"],
                "tags": ["Inventory"],
                "summary": "List batches of a product",
                "parameters": [
                    {"type": "integer", "description": "Product ID", "name": "productId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.Response"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Allocation": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "integer"},
                "quantity": {"type": "integer"}
            }
        },
        "http.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "http.RestockRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "allocations": {"type": "array", "items": {"$ref": "#/definitions/domain.Allocation"}}
            }
        },
        "http.UpdateInventoryRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "quantity": {"type": "integer"},
                "strategy_key": {"type": "string", "enum": ["STANDARD", "ATOMIC"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8082",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Inventory Service API",
	Description:      "Batch inventory with FIFO-by-expiry depletion",
	InfoInstanceName: "inventory",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
