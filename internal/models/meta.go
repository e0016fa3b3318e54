package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape says how an issue lays out its articles under "articles".
type Shape int

const (
	// ShapeNone: "articles" is missing or unusable.
	ShapeNone Shape = iota
	// ShapeKeyed: "articles" maps category key to a list.
	ShapeKeyed
	// ShapeFlat: "articles" is one list, each item naming its category.
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeKeyed:
		return "keyed"
	case ShapeFlat:
		return "flat"
	default:
		return "none"
	}
}

// Group is a named list of articles, kept in document order.
type Group struct {
	Key      string
	Articles []ArticleSummary
}

// CategoryMap is the decoded "articles" value of a meta.json.
type CategoryMap struct {
	Shape Shape
	Keyed []Group
	Flat  []ArticleSummary
}

// IssueMeta is content/issues/{slug}/meta.json. Category lists may live
// under "articles" or directly on the object (TopLevel).
type IssueMeta struct {
	Title    string
	Subtitle string
	Date     string
	Articles CategoryMap
	TopLevel []Group
}

// UnmarshalJSON decodes all three authoring conventions. Values that do
// not look like article lists are ignored instead of failing the issue.
func (m *IssueMeta) UnmarshalJSON(data []byte) error {
	keys, fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("meta: %w", err)
	}
	*m = IssueMeta{}
	for _, k := range keys {
		raw := fields[k]
		switch k {
		case "title":
			m.Title = stringField(raw)
		case "subtitle":
			m.Subtitle = stringField(raw)
		case "date":
			m.Date = stringField(raw)
		case "articles":
			m.Articles = decodeCategoryMap(raw)
		default:
			if list, ok := articleList(raw); ok {
				m.TopLevel = append(m.TopLevel, Group{Key: k, Articles: list})
			}
		}
	}
	return nil
}

func decodeCategoryMap(raw json.RawMessage) CategoryMap {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return CategoryMap{}
	}
	switch raw[0] {
	case '[':
		if list, ok := articleList(raw); ok {
			return CategoryMap{Shape: ShapeFlat, Flat: list}
		}
	case '{':
		keys, fields, err := decodeObject(raw)
		if err != nil {
			return CategoryMap{}
		}
		cm := CategoryMap{Shape: ShapeKeyed}
		for _, k := range keys {
			if list, ok := articleList(fields[k]); ok {
				cm.Keyed = append(cm.Keyed, Group{Key: k, Articles: list})
			}
		}
		return cm
	}
	return CategoryMap{}
}

func articleList(raw json.RawMessage) ([]ArticleSummary, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var list []ArticleSummary
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []ArticleSummary{}
	}
	return list, true
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeObject reads a JSON object keeping key order. Duplicate keys keep
// the last value, matching encoding/json.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, nil, err
		}
		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, fields, nil
}
