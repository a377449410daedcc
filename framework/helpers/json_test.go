package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizedJSONString(t *testing.T) {
	input := []byte(`{"b": [2, {"z": true, "a": null}], "a": "x"}`)
	assert.Equal(t, `{"a":"x","b":[2,{"a":null,"z":true}]}`, CanonicalizedJSONString(input))
}

func TestCanonicalizedJSONStringLeavesInvalidJSONAlone(t *testing.T) {
	assert.Equal(t, "not json", CanonicalizedJSONString([]byte("not json")))
}

func TestParseJSONOrYAMLWithJSONInput(t *testing.T) {
	var target struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, ParseJSONOrYAML([]byte(`{"name": "a", "count": 2}`), &target))
	assert.Equal(t, "a", target.Name)
	assert.Equal(t, 2, target.Count)
}

func TestParseJSONOrYAMLWithYAMLInput(t *testing.T) {
	var target struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, ParseJSONOrYAML([]byte("name: a\ncount: 2\n"), &target))
	assert.Equal(t, "a", target.Name)
	assert.Equal(t, 2, target.Count)
}

func TestParseJSONOrYAMLWithMalformedInput(t *testing.T) {
	var target map[string]interface{}
	assert.Error(t, ParseJSONOrYAML([]byte("{not valid in either syntax"), &target))
}
