// Package models defines data structures for the scraper.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UnknownValue marks a field that was attempted but not found on the page.
const UnknownValue = "XXX"

// Schema is the ordered, fixed set of field names every record of a run carries.
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema builds a schema from unique, non-empty field names.
func NewSchema(fields ...string) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema has no fields")
	}
	s := &Schema{
		fields: make([]string, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, name := range fields {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("schema field name cannot be empty")
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("duplicate schema field %q", name)
		}
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, name)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations.
func MustSchema(fields ...string) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the field names in declaration order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Has reports whether name is a declared field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field is one name/value pair of a record.
type Field struct {
	Name  string
	Value string
}

// Record is one extracted product. Every schema field is always present,
// holding UnknownValue when extraction found nothing.
type Record struct {
	URL       string
	ScrapedAt time.Time

	schema *Schema
	values []string
}

// NewRecord returns a record for url with every field set to UnknownValue.
func NewRecord(schema *Schema, url string) *Record {
	values := make([]string, schema.Len())
	for i := range values {
		values[i] = UnknownValue
	}
	return &Record{
		URL:       url,
		ScrapedAt: time.Now().UTC(),
		schema:    schema,
		values:    values,
	}
}

// Schema returns the record's field set.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Set assigns a declared field. Blank values collapse to UnknownValue.
// It returns false for names outside the schema.
func (r *Record) Set(name, value string) bool {
	i, ok := r.schema.index[name]
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = UnknownValue
	}
	r.values[i] = value
	return true
}

// Get returns the value of a declared field.
func (r *Record) Get(name string) (string, bool) {
	i, ok := r.schema.index[name]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Fields returns the record's pairs in schema order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.values))
	for i, name := range r.schema.fields {
		out[i] = Field{Name: name, Value: r.values[i]}
	}
	return out
}

// Map returns the fields as an unordered map.
func (r *Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for i, name := range r.schema.fields {
		out[name] = r.values[i]
	}
	return out
}

// Missing lists fields still holding UnknownValue.
func (r *Record) Missing() []string {
	var out []string
	for i, name := range r.schema.fields {
		if r.values[i] == UnknownValue {
			out = append(out, name)
		}
	}
	return out
}

// Identity is the natural key used for upserts: the identity field when it
// holds a real value, otherwise the record URL.
func (r *Record) Identity(field string) string {
	if field != "" {
		if v, ok := r.Get(field); ok && v != UnknownValue {
			return v
		}
	}
	return r.URL
}

// Equal reports whether two records hold the same URL and fields.
// ScrapedAt is ignored.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.URL != other.URL || len(r.values) != len(other.values) {
		return false
	}
	for i, name := range r.schema.fields {
		if other.schema.fields[i] != name || other.values[i] != r.values[i] {
			return false
		}
	}
	return true
}

// MarshalJSON writes fields as an object in schema order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"url":`)
	if err := writeJSONString(&buf, r.URL); err != nil {
		return nil, err
	}
	ts, err := r.ScrapedAt.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"scraped_at":`)
	buf.Write(ts)
	buf.WriteString(`,"fields":{`)
	for i, name := range r.schema.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, r.values[i]); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a record, rebuilding its schema from field order.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		URL       string          `json:"url"`
		ScrapedAt time.Time       `json:"scraped_at"`
		Fields    json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	names, values, err := decodeOrderedObject(raw.Fields)
	if err != nil {
		return fmt.Errorf("decode record fields: %w", err)
	}
	schema, err := NewSchema(names...)
	if err != nil {
		return err
	}
	r.URL = raw.URL
	r.ScrapedAt = raw.ScrapedAt
	r.schema = schema
	r.values = values
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func decodeOrderedObject(data []byte) ([]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var names, values []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected field name, got %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		names = append(names, key)
		values = append(values, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return names, values, nil
}
