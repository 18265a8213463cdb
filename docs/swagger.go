// Package docs Urban Context API.
//
// Сервис геоконтекста точки: статические слои города (деревья, здания,
// зелёные зоны, улицы, POI), OSM-метрики окружения и дневная погода
// с кешированием в PostgreSQL.
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
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Состояние PostgreSQL и Redis",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "degraded"}
                }
            }
        },
        "/api/v1/datasets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Каталог слоёв",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/datasets/{name}": {
            "get": {
                "produces": ["application/geo+json"],
                "tags": ["datasets"],
                "summary": "Объекты слоя по bbox или радиусу",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"type": "string", "description": "minLon,minLat,maxLon,maxLat", "name": "bbox", "in": "query"},
                    {"type": "number", "name": "lat", "in": "query"},
                    {"type": "number", "name": "lon", "in": "query"},
                    {"type": "number", "name": "radius_m", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "number", "name": "simplify_m", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "FeatureCollection"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Unknown dataset"}
                }
            }
        },
        "/api/v1/datasets/{name}/metadata": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Число объектов и экстент слоя",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown dataset"}}
            }
        },
        "/api/v1/context": {
            "get": {
                "produces": ["application/json"],
                "tags": ["context"],
                "summary": "Контекстные метрики точки по статическим слоям",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "number", "name": "radius_m", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/enrich/point": {
            "get": {
                "produces": ["application/json"],
                "tags": ["enrich"],
                "summary": "Обогащение точки: OSM-метрики, погода, геометрии",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "number", "name": "radius_m", "in": "query"},
                    {"type": "string", "name": "start", "in": "query"},
                    {"type": "string", "name": "end", "in": "query"},
                    {"type": "boolean", "name": "include_osm", "in": "query"},
                    {"type": "boolean", "name": "include_weather", "in": "query"},
                    {"type": "boolean", "name": "osm_refresh", "in": "query"},
                    {"type": "boolean", "name": "include_geometries", "in": "query"},
                    {"type": "string", "description": "bbox | radius | both", "name": "mode", "in": "query"},
                    {"type": "string", "name": "datasets", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "number", "name": "simplify_m", "in": "query"},
                    {"type": "string", "name": "bbox", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/osm/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["osm"],
                "summary": "OSM-метрики окружения с кешем",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "integer", "name": "radius_m", "in": "query"},
                    {"type": "boolean", "name": "refresh", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Upstream unavailable"}}
            }
        },
        "/api/v1/weather/daily": {
            "get": {
                "produces": ["application/json"],
                "tags": ["weather"],
                "summary": "Дневная погода за период с кешем",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "string", "name": "start", "in": "query", "required": true},
                    {"type": "string", "name": "end", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Upstream unavailable"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Urban Context API",
	Description:      "Геоконтекст точки: статические слои, OSM-метрики и погода.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
