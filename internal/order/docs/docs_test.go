package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestListOrdersDocumentsDefaultPageSize(t *testing.T) {
	raw, err := swag.ReadDoc("order")
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]struct {
			Description string `json:"description"`
			Parameters  []struct {
				Name    string `json:"name"`
				Default *int   `json:"default"`
				Maximum *int   `json:"maximum"`
			} `json:"parameters"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	list, ok := doc.Paths["/order"]["get"]
	require.True(t, ok)
	assert.Contains(t, list.Description, "20 orders")
	assert.Contains(t, list.Description, "capped at 100")

	require.NotEmpty(t, list.Parameters)
	limit := list.Parameters[0]
	assert.Equal(t, "limit", limit.Name)
	require.NotNil(t, limit.Default)
	require.NotNil(t, limit.Maximum)
	assert.Equal(t, 20, *limit.Default)
	assert.Equal(t, 100, *limit.Maximum)
}
