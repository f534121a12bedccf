package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrValue_UnmarshalKinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind AttrKind
		text string
	}{
		{"string", `{"S":"abc"}`, KindString, "abc"},
		{"numeric text", `{"N":"42"}`, KindNumber, "42"},
		{"numeric literal", `{"N":42.5}`, KindNumber, "42.5"},
		{"null", `{"NULL":true}`, KindNull, ""},
		{"bare string", `"string"`, KindInvalid, ""},
		{"unknown object", `{"X":1}`, KindInvalid, ""},
		{"json null", `null`, KindInvalid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v AttrValue
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.Equal(t, tt.kind, v.Kind)
			text, _ := v.Text()
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestAttrValue_NestedPathAndItems(t *testing.T) {
	var v AttrValue
	in := `{"L":[{"M":{"id":{"S":"1"},"value":{"M":{"k":{"M":{"value":{"N":"7"},"type":"string"}}}}}},{"S":"stray"}]}`
	require.NoError(t, json.Unmarshal([]byte(in), &v))

	items := v.Items()
	require.Len(t, items, 1, "non-map list entries are skipped")

	leaf, ok := items[0].Path("value", "k", "value")
	require.True(t, ok)
	text, ok := leaf.Text()
	require.True(t, ok)
	assert.Equal(t, "7", text)

	_, ok = items[0].Path("value", "missing")
	assert.False(t, ok)
}

func TestAttrValue_MarshalRoundTrip(t *testing.T) {
	v := Map(map[string]AttrValue{
		"a": String("x"),
		"b": List(Number("1"), Null()),
	})
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var back AttrValue
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)
}

func TestImpactRule_Satisfied(t *testing.T) {
	two := 2
	tests := []struct {
		cond Condition
		rp   int
		want bool
	}{
		{">", 3, true},
		{">", 2, false},
		{"<", 1, true},
		{"<", 2, false},
		{">=", 2, true},
		{"≧", 2, true},
		{"<=", 2, true},
		{"≦", 3, false},
		{"=", 2, true},
		{"=", 3, false},
		{"!=", 3, false},
	}
	for _, tt := range tests {
		rule := ImpactRule{Condition: tt.cond, Expect: &two}
		assert.Equal(t, tt.want, rule.Satisfied(tt.rp), "%s %d", tt.cond, tt.rp)
	}

	assert.False(t, ImpactRule{Condition: ">"}.Satisfied(10), "nil threshold never holds")
}
