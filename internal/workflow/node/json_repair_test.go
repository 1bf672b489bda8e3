package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairTruncatedJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"open string value", `{"a":"hel`, `{"a":"hel"}`},
		{"open key", `{"a":1,"b`, `{"a":1,"b":null}`},
		{"key without colon", `{"a"`, `{"a":null}`},
		{"dangling colon", `{"a":`, `{"a":null}`},
		{"trailing comma in array", `{"a":[1,2,`, `{"a":[1,2]}`},
		{"trailing comma in object", `{"a":1,`, `{"a":1}`},
		{"partial true", `{"a":tr`, `{"a":true}`},
		{"partial null", `{"a":[n`, `{"a":[null]}`},
		{"partial number", `{"a":1.`, `{"a":1}`},
		{"dangling escape", `{"a":"x\`, `{"a":"x"}`},
		{"partial unicode escape", `{"a":"x\u12`, `{"a":"x"}`},
		{"nested multibyte", `{"summary":{"goals":"성장`, `{"summary":{"goals":"성장"}}`},
		{"array of objects", `{"items":[{"name":"a","value":1},{"name":"b"`, `{"items":[{"name":"a","value":1},{"name":"b"}]}`},
		{"top level array", `[1,2`, `[1,2]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := RepairTruncatedJSON(tc.in)
			require.True(t, ok)
			assert.JSONEq(t, tc.want, got)
		})
	}
}

func TestRepairTruncatedJSON_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"not json", "hello"},
		{"already complete", `{"a":1}`},
		{"content after close", `{"a":1} {"b":`},
		{"mismatched closer", `{"a":[1}`},
		{"unknown literal", `{"a":xyz`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := RepairTruncatedJSON(tc.in)
			assert.False(t, ok)
		})
	}
}

func TestRepairTruncatedJSON_KeepsEscapedContent(t *testing.T) {
	got, ok := RepairTruncatedJSON(`{"a":"say \"hi\" and {x}`)
	require.True(t, ok)

	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &m))
	assert.Equal(t, `say "hi" and {x}`, m["a"])
}
