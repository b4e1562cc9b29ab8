// Package docs holds the Swagger description served under /docs.
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
        "/api/recommend": {
            "post": {
                "description": "Picks the cheapest store within the radius that prices every item on the list",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["recommend"],
                "summary": "Recommend a store",
                "parameters": [
                    {"description": "Shopping list and location", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RecommendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecommendResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "No suitable stores found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/stores": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stores"],
                "summary": "List stores",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StoresResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stores"],
                "summary": "Create or replace a store",
                "parameters": [
                    {"type": "string", "description": "Internal API key", "name": "X-Internal-API-Key", "in": "header"},
                    {"description": "Store", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateStoreRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.StoreResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/stores/nearby": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stores"],
                "summary": "List stores around a point, closest first",
                "parameters": [
                    {"type": "number", "name": "latitude", "in": "query", "required": true},
                    {"type": "number", "name": "longitude", "in": "query", "required": true},
                    {"type": "number", "description": "Radius in km, defaults to 25", "name": "radius", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.NearbyStoresResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/stores/{storeId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stores"],
                "summary": "Get a store",
                "parameters": [
                    {"type": "string", "name": "storeId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StoreResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/stores/{storeId}/prices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["prices"],
                "summary": "List price reports made at a store",
                "parameters": [
                    {"type": "string", "name": "storeId", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PricesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/items": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Create or replace an item",
                "parameters": [
                    {"type": "string", "description": "Internal API key", "name": "X-Internal-API-Key", "in": "header"},
                    {"description": "Item", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.ItemResponse"}}
                }
            }
        },
        "/api/items/{itemId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get an item",
                "parameters": [
                    {"type": "string", "name": "itemId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ItemResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/prices": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prices"],
                "summary": "Report a price",
                "parameters": [
                    {"type": "string", "description": "Internal API key", "name": "X-Internal-API-Key", "in": "header"},
                    {"description": "Price report", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ReportPriceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.PriceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Unknown store or item", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/prices/compare": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prices"],
                "summary": "Best known price per item",
                "parameters": [
                    {"description": "Items", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CompareRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CompareResponse"}}
                }
            }
        },
        "/api/prices/{itemId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["prices"],
                "summary": "List price reports for an item",
                "parameters": [
                    {"type": "string", "name": "itemId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PricesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Catalog unreachable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.Location": {
            "type": "object",
            "required": ["latitude", "longitude"],
            "properties": {
                "latitude": {"type": "number", "maximum": 90, "minimum": -90},
                "longitude": {"type": "number", "maximum": 180, "minimum": -180}
            }
        },
        "handlers.LocationResponse": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        },
        "handlers.RecommendRequest": {
            "type": "object",
            "required": ["shoppingList", "userLocation"],
            "properties": {
                "shoppingList": {"type": "array", "minItems": 1, "items": {"type": "string"}},
                "userLocation": {"$ref": "#/definitions/handlers.Location"},
                "radiusKm": {"type": "number", "minimum": 0}
            }
        },
        "handlers.CompareRequest": {
            "type": "object",
            "required": ["shoppingList"],
            "properties": {
                "shoppingList": {"type": "array", "minItems": 1, "items": {"type": "string"}}
            }
        },
        "handlers.CreateStoreRequest": {
            "type": "object",
            "required": ["name", "location"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location": {"$ref": "#/definitions/handlers.Location"}
            }
        },
        "handlers.CreateItemRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "brand": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.ReportPriceRequest": {
            "type": "object",
            "required": ["itemId", "storeId", "price"],
            "properties": {
                "itemId": {"type": "string"},
                "storeId": {"type": "string"},
                "price": {"type": "integer", "minimum": 0, "maximum": 100000000000},
                "userId": {"type": "string"},
                "saleStatus": {"type": "boolean"}
            }
        },
        "handlers.StoreResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location": {"$ref": "#/definitions/handlers.LocationResponse"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.NearbyStoreResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location": {"$ref": "#/definitions/handlers.LocationResponse"},
                "timestamp": {"type": "string"},
                "distanceKm": {"type": "number"}
            }
        },
        "handlers.NearbyStoresResponse": {
            "type": "object",
            "properties": {
                "stores": {"type": "array", "items": {"$ref": "#/definitions/handlers.NearbyStoreResponse"}},
                "radiusKm": {"type": "number"},
                "total": {"type": "integer"}
            }
        },
        "handlers.StoresResponse": {
            "type": "object",
            "properties": {
                "stores": {"type": "array", "items": {"$ref": "#/definitions/handlers.StoreResponse"}},
                "total": {"type": "integer"}
            }
        },
        "handlers.ItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "brand": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.PriceResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "itemId": {"type": "string"},
                "storeId": {"type": "string"},
                "price": {"type": "integer"},
                "userId": {"type": "string"},
                "saleStatus": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.PricesResponse": {
            "type": "object",
            "properties": {
                "prices": {"type": "array", "items": {"$ref": "#/definitions/handlers.PriceResponse"}},
                "total": {"type": "integer"}
            }
        },
        "handlers.RecommendResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location": {"$ref": "#/definitions/handlers.LocationResponse"},
                "timestamp": {"type": "string"},
                "totalCost": {"type": "integer"},
                "distanceKm": {"type": "number"},
                "breakdown": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handlers.PriceResponse"}},
                "evaluatedStores": {"type": "integer"},
                "feasibleStores": {"type": "integer"}
            }
        },
        "handlers.CompareResponse": {
            "type": "object",
            "properties": {
                "prices": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handlers.PriceResponse"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "field": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "catalog": {"type": "string"},
                "engine": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Store Recommender API",
	Description:      "Recommends the cheapest nearby store for a shopping list from crowd-sourced prices.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
