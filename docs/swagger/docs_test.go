package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerInfo_ReadDoc(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{"/api/health", "/api/query", "/api/keys", "/api/reload/{source}"} {
		assert.Contains(t, paths, p)
	}
	assert.Equal(t, "jsoncache API", doc["info"].(map[string]any)["title"])
}
