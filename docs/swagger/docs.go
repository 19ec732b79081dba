// Package swagger holds the OpenAPI document served at /swagger.
package swagger

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
        "/api/health": {
            "get": {
                "description": "Reports whether the cache is loaded and how many sources hold a document.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Health",
                "responses": {
                    "200": {"description": "Loaded", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Not loaded", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/sources": {
            "get": {
                "description": "Lists every configured source in declaration order.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "List Sources",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/cache.SourceConfig"}}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "description": "Aggregated statistics of every source. cacheHitRate is an approximation; use totalFound and totalMissed for the real ratio.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Cache Statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cache.GlobalStats"}}
                }
            }
        },
        "/api/stats/{source}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Source Statistics",
                "parameters": [
                    {"type": "string", "description": "Source name", "name": "source", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cache.SourceStats"}},
                    "404": {"description": "Unknown source", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/query": {
            "get": {
                "description": "Resolves a key case-insensitively, through namespace prefixes and dotted paths. Without a source the primary is searched first, then the others in order.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Query Key",
                "parameters": [
                    {"type": "string", "description": "Key", "name": "key", "in": "query", "required": true},
                    {"type": "string", "description": "Source name", "name": "source", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cache.QueryResult"}},
                    "400": {"description": "Missing key", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Cache not loaded", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/keys": {
            "get": {
                "description": "Sorted, deduplicated flat keys of one source or of all sources.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "List Keys",
                "parameters": [
                    {"type": "string", "description": "Source name", "name": "source", "in": "query"},
                    {"type": "string", "description": "Key prefix", "name": "prefix", "in": "query"},
                    {"type": "integer", "description": "Flattening depth", "name": "maxDepth", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Keys", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Cache not loaded", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/reload": {
            "post": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Reload All Sources",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/cache.ReloadResult"}}}
                }
            }
        },
        "/api/reload/{source}": {
            "post": {
                "description": "Reloads one source. On failure the previous document stays cached.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Reload Source",
                "parameters": [
                    {"type": "string", "description": "Source name", "name": "source", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cache.ReloadResult"}},
                    "404": {"description": "Unknown source", "schema": {"$ref": "#/definitions/cache.ReloadResult"}},
                    "500": {"description": "Reload failed", "schema": {"$ref": "#/definitions/cache.ReloadResult"}}
                }
            }
        }
    },
    "definitions": {
        "cache.SourceConfig": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "path": {"type": "string"},
                "primary": {"type": "boolean"},
                "watch": {"type": "boolean"}
            }
        },
        "cache.QueryResult": {
            "type": "object",
            "properties": {
                "found": {"type": "boolean"},
                "key": {"type": "string"},
                "source": {"type": "string"},
                "value": {}
            }
        },
        "cache.ReloadResult": {
            "type": "object",
            "properties": {
                "duration": {"type": "integer"},
                "error": {"type": "string"},
                "keys": {"type": "integer"},
                "size": {"type": "integer"},
                "source": {"type": "string"},
                "success": {"type": "boolean"},
                "changes": {"$ref": "#/definitions/reconcile.Summary"}
            }
        },
        "reconcile.Summary": {
            "type": "object",
            "properties": {
                "added": {"type": "integer"},
                "addedKeys": {"type": "array", "items": {"type": "string"}},
                "changed": {"type": "integer"},
                "changedKeys": {"type": "array", "items": {"type": "string"}},
                "removed": {"type": "integer"},
                "removedKeys": {"type": "array", "items": {"type": "string"}},
                "unchanged": {"type": "integer"}
            }
        },
        "cache.SourceStats": {
            "type": "object",
            "properties": {
                "found": {"type": "integer"},
                "hits": {"type": "integer"},
                "keys": {"type": "integer"},
                "loadDuration": {"type": "string"},
                "loaded": {"type": "boolean"},
                "loadedAt": {"type": "string"},
                "missed": {"type": "integer"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "primary": {"type": "boolean"},
                "size": {"type": "integer"},
                "watch": {"type": "boolean"}
            }
        },
        "cache.GlobalStats": {
            "type": "object",
            "properties": {
                "cacheHitRate": {"type": "number"},
                "loadedSources": {"type": "integer"},
                "primarySource": {"type": "string"},
                "sources": {"type": "array", "items": {"$ref": "#/definitions/cache.SourceStats"}},
                "totalFound": {"type": "integer"},
                "totalHits": {"type": "integer"},
                "totalKeys": {"type": "integer"},
                "totalMissed": {"type": "integer"},
                "totalSize": {"type": "integer"},
                "totalSources": {"type": "integer"}
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
	Title:            "jsoncache API",
	Description:      "Key lookups, statistics and reloads over cached JSON sources.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
