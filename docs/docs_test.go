package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

// TestSwaggerInfoMetadata verifies the API metadata.
func TestSwaggerInfoMetadata(t *testing.T) {
	t.Run("title is set correctly", func(t *testing.T) {
		assert.Equal(t, "Store Recommender API", SwaggerInfo.Title)
	})

	t.Run("version is set correctly", func(t *testing.T) {
		assert.Equal(t, "1.0", SwaggerInfo.Version)
	})

	t.Run("instance name is swagger", func(t *testing.T) {
		assert.Equal(t, "swagger", SwaggerInfo.InfoInstanceName)
	})
}

// TestSwaggerInfoReadDoc verifies that ReadDoc returns valid JSON.
func TestSwaggerInfoReadDoc(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()
	require.NotEmpty(t, doc)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed), "ReadDoc should return valid JSON")

	info, ok := parsed["info"].(map[string]interface{})
	require.True(t, ok, "JSON should have info section")
	assert.Equal(t, "Store Recommender API", info["title"])
	assert.Equal(t, "2.0", parsed["swagger"])
}

// TestSwaggerRegistered verifies that gin-swagger can find the document.
func TestSwaggerRegistered(t *testing.T) {
	doc, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	assert.Contains(t, doc, "/api/recommend")
}

// TestSwaggerInfoHasEndpoints checks every API route is described and every
// referenced definition exists.
func TestSwaggerInfoHasEndpoints(t *testing.T) {
	var parsed struct {
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &parsed))

	expected := map[string][]string{
		"/api/recommend":               {"post"},
		"/api/stores":                  {"get", "post"},
		"/api/stores/nearby":           {"get"},
		"/api/stores/{storeId}":        {"get"},
		"/api/stores/{storeId}/prices": {"get"},
		"/api/items":                   {"post"},
		"/api/items/{itemId}":          {"get"},
		"/api/prices":                  {"post"},
		"/api/prices/compare":          {"post"},
		"/api/prices/{itemId}":         {"get"},
		"/health":                      {"get"},
	}
	for path, methods := range expected {
		ops, ok := parsed.Paths[path]
		if !assert.True(t, ok, "Path %s should exist in swagger spec", path) {
			continue
		}
		for _, m := range methods {
			assert.Contains(t, ops, m, "%s %s", m, path)
		}
	}

	for _, name := range []string{
		"handlers.RecommendRequest",
		"handlers.RecommendResponse",
		"handlers.PriceResponse",
		"handlers.ErrorResponse",
	} {
		assert.Contains(t, parsed.Definitions, name)
	}
}
