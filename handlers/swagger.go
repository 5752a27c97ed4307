package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>schoolfinder API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "schoolfinder", "version": "v1" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/v1/schools": {
      "get": {
        "summary": "Search schools",
        "parameters": [
          { "name": "board", "in": "query", "schema": { "type": "string" } },
          { "name": "fee", "in": "query", "schema": { "type": "string" } },
          { "name": "class", "in": "query", "schema": { "type": "string" } },
          { "name": "hostel", "in": "query", "schema": { "type": "boolean" } },
          { "name": "transport", "in": "query", "schema": { "type": "boolean" } },
          { "name": "q", "in": "query", "schema": { "type": "string" } },
          { "name": "maxDistance", "in": "query", "schema": { "type": "number" } },
          { "name": "amenities", "in": "query", "schema": { "type": "string" } },
          { "name": "minRating", "in": "query", "schema": { "type": "number" } },
          { "name": "lat", "in": "query", "schema": { "type": "number" } },
          { "name": "lng", "in": "query", "schema": { "type": "number" } },
          { "name": "sort", "in": "query", "schema": { "type": "string", "enum": ["rating", "distance", "fee_asc", "fee_desc", "name"] } },
          { "name": "page", "in": "query", "schema": { "type": "integer", "default": 1 } },
          { "name": "pageSize", "in": "query", "schema": { "type": "integer", "default": 20, "maximum": 100 } }
        ],
        "responses": { "200": { "description": "data, totalRows, totalPages, currentPage, pageSize, criteria" } }
      }
    },
    "/api/v1/schools/{slug}": {
      "get": { "summary": "School detail", "responses": { "200": { "description": "school with amenityDetails (key, label, icon)" }, "404": { "description": "school not found" } } }
    },
    "/api/v1/schools/{slug}/seo": {
      "get": { "summary": "Page metadata and JSON-LD for a school", "responses": { "200": { "description": "metadata, structuredData" }, "404": { "description": "school not found" } } }
    },
    "/api/v1/seo": { "get": { "summary": "Site-wide default metadata", "responses": { "200": { "description": "metadata" } } } },
    "/api/v1/filters": { "get": { "summary": "Filter options", "responses": { "200": { "description": "boards, feeRanges, classLevels, amenities, maxDistance, sortKeys" } } } },
    "/sitemap.xml": { "get": { "summary": "Sitemap of public pages", "responses": { "200": { "description": "urlset" } } } },
    "/files/{key}": {
      "get": {
        "summary": "Download a document through a presigned link (in-memory storage only)",
        "parameters": [
          { "name": "key", "in": "path", "required": true, "schema": { "type": "string" } },
          { "name": "expires", "in": "query", "required": true, "schema": { "type": "integer" } },
          { "name": "signature", "in": "query", "required": true, "schema": { "type": "string" } }
        ],
        "responses": { "200": { "description": "document bytes" }, "403": { "description": "invalid or expired link" }, "404": { "description": "not found" } }
      }
    },
    "/auth/login": {
      "post": {
        "summary": "Login with an id_token, or exchange a password / authorization code",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "mode": { "type": "string", "enum": ["id_token", "password", "auth_code"] }, "id_token": { "type": "string" }, "username": { "type": "string" }, "password": { "type": "string" }, "code": { "type": "string" }, "redirect_uri": { "type": "string" } } } } } },
        "responses": { "200": { "description": "accessToken, refreshToken, expiresIn, user" }, "401": { "description": "authentication failed" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate refresh token", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refresh_token": { "type": "string" } } } } } }, "responses": { "200": { "description": "new tokens" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and revoke tokens", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refresh_token": { "type": "string" }, "all": { "type": "boolean", "description": "revoke every session of the parent" } } } } } }, "responses": { "200": { "description": "logged out" }, "401": { "description": "invalid refresh token" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current parent account", "security": [{ "bearer": [] }], "responses": { "200": { "description": "user" }, "401": { "description": "unauthorized" } } }
    },
    "/api/v1/applications": {
      "get": { "summary": "List own applications", "security": [{ "bearer": [] }], "responses": { "200": { "description": "data, totalRows" } } },
      "post": { "summary": "Start an application", "security": [{ "bearer": [] }], "responses": { "201": { "description": "application" }, "400": { "description": "invalid application" } } }
    },
    "/api/v1/applications/{id}": {
      "get": { "summary": "Application detail", "security": [{ "bearer": [] }], "responses": { "200": { "description": "application" }, "403": { "description": "forbidden" }, "404": { "description": "application not found" } } }
    },
    "/api/v1/applications/{id}/status": {
      "patch": { "summary": "Set status", "security": [{ "bearer": [] }], "responses": { "200": { "description": "application" }, "400": { "description": "invalid status" } } }
    },
    "/api/v1/applications/{id}/documents": {
      "post": { "summary": "Upload a document (multipart: file, type)", "security": [{ "bearer": [] }], "responses": { "201": { "description": "document" }, "400": { "description": "rejected upload" } } }
    },
    "/api/v1/applications/{id}/messages": {
      "post": { "summary": "Append a chat message", "security": [{ "bearer": [] }], "responses": { "201": { "description": "message" } } }
    },
    "/api/v1/applications/{id}/matches": {
      "put": { "summary": "Replace school matches", "security": [{ "bearer": [] }], "responses": { "200": { "description": "application" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "exposition" } } } }
  }
}`
