package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AttrKind identifies which wrapper an attribute value was decoded from
type AttrKind int

const (
	KindInvalid AttrKind = iota // Not a typed wrapper (bare scalar or unknown object)
	KindString                  // {"S": "..."}
	KindNumber                  // {"N": "..."}
	KindNull                    // {"NULL": true}
	KindMap                     // {"M": {...}}
	KindList                    // {"L": [...]}
)

func (k AttrKind) String() string {
	switch k {
	case KindString:
		return "S"
	case KindNumber:
		return "N"
	case KindNull:
		return "NULL"
	case KindMap:
		return "M"
	case KindList:
		return "L"
	default:
		return "invalid"
	}
}

// AttrValue is one node of the nested attribute-value record format.
// Exactly one of the payload fields is meaningful, selected by Kind.
type AttrValue struct {
	Kind AttrKind
	Str  string               // S and N payloads (numbers are kept as text)
	Map  map[string]AttrValue // M payload
	List []AttrValue          // L payload
}

// String builds an S wrapper
func String(s string) AttrValue { return AttrValue{Kind: KindString, Str: s} }

// Number builds an N wrapper
func Number(n string) AttrValue { return AttrValue{Kind: KindNumber, Str: n} }

// Null builds a NULL wrapper
func Null() AttrValue { return AttrValue{Kind: KindNull} }

// Map builds an M wrapper
func Map(m map[string]AttrValue) AttrValue { return AttrValue{Kind: KindMap, Map: m} }

// List builds an L wrapper
func List(items ...AttrValue) AttrValue { return AttrValue{Kind: KindList, List: items} }

// UnmarshalJSON decodes a single-key typed wrapper. Values that are not
// wrapper objects decode as KindInvalid instead of failing, so stray
// annotations in the feed never abort normalization.
func (v *AttrValue) UnmarshalJSON(data []byte) error {
	*v = AttrValue{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("decode attribute: %w", err)
	}

	if raw, ok := wrapper["S"]; ok {
		v.Kind = KindString
		return json.Unmarshal(raw, &v.Str)
	}
	if raw, ok := wrapper["N"]; ok {
		v.Kind = KindNumber
		return decodeNumberText(raw, &v.Str)
	}
	if raw, ok := wrapper["M"]; ok {
		v.Kind = KindMap
		return json.Unmarshal(raw, &v.Map)
	}
	if raw, ok := wrapper["L"]; ok {
		v.Kind = KindList
		return json.Unmarshal(raw, &v.List)
	}
	if _, ok := wrapper["NULL"]; ok {
		v.Kind = KindNull
	}
	return nil
}

// MarshalJSON writes the value back in wrapper form
func (v AttrValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(map[string]string{"S": v.Str})
	case KindNumber:
		return json.Marshal(map[string]string{"N": v.Str})
	case KindNull:
		return json.Marshal(map[string]bool{"NULL": true})
	case KindMap:
		if v.Map == nil {
			return []byte(`{"M":{}}`), nil
		}
		return json.Marshal(map[string]map[string]AttrValue{"M": v.Map})
	case KindList:
		if v.List == nil {
			return []byte(`{"L":[]}`), nil
		}
		return json.Marshal(map[string][]AttrValue{"L": v.List})
	default:
		return []byte("null"), nil
	}
}

// decodeNumberText accepts N payloads written either as strings or as JSON numbers
func decodeNumberText(raw json.RawMessage, dst *string) error {
	if err := json.Unmarshal(raw, dst); err == nil {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("decode number attribute: %w", err)
	}
	*dst = n.String()
	return nil
}

// Text unwraps a scalar. S yields its string, N its numeric text.
// Any other kind reports false.
func (v AttrValue) Text() (string, bool) {
	switch v.Kind {
	case KindString, KindNumber:
		return v.Str, true
	default:
		return "", false
	}
}

// Field returns a key of an M wrapper
func (v AttrValue) Field(key string) (AttrValue, bool) {
	if v.Kind != KindMap {
		return AttrValue{}, false
	}
	field, ok := v.Map[key]
	return field, ok
}

// Path walks nested M wrappers one key at a time
func (v AttrValue) Path(keys ...string) (AttrValue, bool) {
	cur := v
	for _, key := range keys {
		next, ok := cur.Field(key)
		if !ok {
			return AttrValue{}, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the elements of an L wrapper with each M wrapper unwrapped.
// Elements that are not maps are skipped.
func (v AttrValue) Items() []AttrValue {
	if v.Kind != KindList {
		return nil
	}
	items := make([]AttrValue, 0, len(v.List))
	for _, item := range v.List {
		if item.Kind == KindMap {
			items = append(items, item)
		}
	}
	return items
}

// RawRecord is one item of the inbound feed, keyed by field name
type RawRecord map[string]AttrValue

// RawFeed is the root document returned by the data API
type RawFeed struct {
	Count int         `json:"Count"`
	Items []RawRecord `json:"Items"`
}
