package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ReportPayload is the document embedded in a report page: the narrative text
// plus the figures behind the chart and summary cards.
type ReportPayload struct {
	NarrativeReport  string         `json:"narrative_report"`
	DataForDashboard *DashboardData `json:"data_for_dashboard"`
}

// DashboardData holds the monthly total and its per-category split, both in kg CO2e.
// TotalKgCO2e is nil when the document omitted it.
type DashboardData struct {
	TotalKgCO2e   *float64          `json:"total_kg_co2e"`
	DetailsKgCO2e CategoryBreakdown `json:"details_kg_co2e"`
}

// Total returns the monthly total and whether it was present.
func (d *DashboardData) Total() (float64, bool) {
	if d == nil || d.TotalKgCO2e == nil {
		return 0, false
	}
	return *d.TotalKgCO2e, true
}

// Category is one entry of a breakdown.
type Category struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// CategoryBreakdown is a JSON object of category key to value that keeps document
// order, since chart labels and values follow the order the keys were written in.
type CategoryBreakdown []Category

// UnmarshalJSON decodes an object of numbers in order. A repeated key keeps its
// first position and takes the last value. null decodes to an empty breakdown.
func (b *CategoryBreakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category breakdown: expected object, got %v", tok)
	}

	out := CategoryBreakdown{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("category breakdown: value for %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			out[i].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, Category{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*b = out
	return nil
}

// MarshalJSON encodes the breakdown as an object in its current order.
func (b CategoryBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Value implements driver.Valuer so a breakdown can live in a JSON column.
func (b CategoryBreakdown) Value() (driver.Value, error) {
	data, err := b.MarshalJSON()
	return string(data), err
}

// Scan implements sql.Scanner interface
func (b *CategoryBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	data, err := scanBytes(value)
	if err != nil {
		return err
	}
	return b.UnmarshalJSON(data)
}

// Get returns the value stored under key.
func (b CategoryBreakdown) Get(key string) (float64, bool) {
	for _, c := range b {
		if c.Key == key {
			return c.Value, true
		}
	}
	return 0, false
}

// Keys returns category keys in order.
func (b CategoryBreakdown) Keys() []string {
	keys := make([]string, len(b))
	for i, c := range b {
		keys[i] = c.Key
	}
	return keys
}

// Values returns category values in order.
func (b CategoryBreakdown) Values() []float64 {
	values := make([]float64, len(b))
	for i, c := range b {
		values[i] = c.Value
	}
	return values
}

// Field paths reported by DecodeError.
const (
	FieldNarrative = "narrative_report"
	FieldDashboard = "data_for_dashboard"
	FieldTotal     = "data_for_dashboard.total_kg_co2e"
	FieldDetails   = "data_for_dashboard.details_kg_co2e"
)

// FieldError is a payload field whose value had the wrong shape.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// DecodeError lists the fields DecodePayload left unset. The document itself was
// valid JSON.
type DecodeError struct {
	Fields []FieldError
}

func (e *DecodeError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "payload: " + strings.Join(msgs, "; ")
}

// Field returns the error recorded for field, or nil. It is safe on a nil receiver.
func (e *DecodeError) Field(field string) error {
	if e == nil {
		return nil
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f
		}
	}
	return nil
}

func (e *DecodeError) add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Err: err})
}

// DecodePayload decodes raw into a payload field by field. A field with the wrong
// type is left unset (nil total, empty details) and reported in a *DecodeError
// while the other fields still decode. Invalid JSON, or a document that is not an
// object, returns the decoder's error with an empty payload.
func DecodePayload(raw []byte) (*ReportPayload, error) {
	payload := &ReportPayload{}
	var doc struct {
		NarrativeReport  json.RawMessage `json:"narrative_report"`
		DataForDashboard json.RawMessage `json:"data_for_dashboard"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return payload, err
	}

	derr := &DecodeError{}
	if err := decodeField(doc.NarrativeReport, &payload.NarrativeReport); err != nil {
		derr.add(FieldNarrative, err)
	}
	if present(doc.DataForDashboard) {
		payload.DataForDashboard = decodeDashboard(doc.DataForDashboard, derr)
	}

	if len(derr.Fields) > 0 {
		return payload, derr
	}
	return payload, nil
}

func decodeDashboard(raw json.RawMessage, derr *DecodeError) *DashboardData {
	var dash struct {
		TotalKgCO2e   json.RawMessage `json:"total_kg_co2e"`
		DetailsKgCO2e json.RawMessage `json:"details_kg_co2e"`
	}
	if err := json.Unmarshal(raw, &dash); err != nil {
		derr.add(FieldDashboard, err)
		return nil
	}

	data := &DashboardData{}
	if present(dash.TotalKgCO2e) {
		var total float64
		if err := json.Unmarshal(dash.TotalKgCO2e, &total); err != nil {
			derr.add(FieldTotal, err)
		} else {
			data.TotalKgCO2e = &total
		}
	}
	if err := decodeField(dash.DetailsKgCO2e, &data.DetailsKgCO2e); err != nil {
		derr.add(FieldDetails, err)
		data.DetailsKgCO2e = nil
	}
	return data
}

func decodeField(raw json.RawMessage, v any) error {
	if !present(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// present reports whether a field was given a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
