package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryBreakdown_KeepsDocumentOrder(t *testing.T) {
	var b CategoryBreakdown
	err := json.Unmarshal([]byte(`{"transporte": 30, "energia_eletrica": 10, "gas_cozinha": 5}`), &b)
	require.NoError(t, err)

	assert.Equal(t, []string{"transporte", "energia_eletrica", "gas_cozinha"}, b.Keys())
	assert.Equal(t, []float64{30, 10, 5}, b.Values())

	// Reverse alphabetical order must survive too
	err = json.Unmarshal([]byte(`{"z": 1, "a": 2}`), &b)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, b.Keys())
}

func TestCategoryBreakdown_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CategoryBreakdown
		wantErr bool
	}{
		{name: "empty object", input: `{}`, want: CategoryBreakdown{}},
		{name: "null", input: `null`, want: nil},
		{
			name:  "repeated key keeps first position, last value",
			input: `{"a": 1, "b": 2, "a": 3}`,
			want:  CategoryBreakdown{{"a", 3}, {"b", 2}},
		},
		{name: "array is rejected", input: `[1, 2]`, wantErr: true},
		{name: "string value is rejected", input: `{"a": "1"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b CategoryBreakdown
			err := json.Unmarshal([]byte(tt.input), &b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)
		})
	}
}

func TestCategoryBreakdown_MarshalJSON(t *testing.T) {
	b := CategoryBreakdown{{"gas_cozinha", 5}, {"transporte", 30.5}}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"gas_cozinha":5,"transporte":30.5}`, string(data))

	empty, err := json.Marshal(CategoryBreakdown(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestCategoryBreakdown_ValueScan(t *testing.T) {
	b := CategoryBreakdown{{"energia_eletrica", 10}, {"transporte", 30}}
	v, err := b.Value()
	require.NoError(t, err)

	var scanned CategoryBreakdown
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, b, scanned)

	require.NoError(t, scanned.Scan([]byte(`{"x":1}`)))
	assert.Equal(t, CategoryBreakdown{{"x", 1}}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestCategoryBreakdown_Get(t *testing.T) {
	b := CategoryBreakdown{{"transporte", 30}}

	v, ok := b.Get("transporte")
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	_, ok = b.Get("gas_cozinha")
	assert.False(t, ok)
}

func TestDecodePayload(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{
			"narrative_report": "## Oi",
			"data_for_dashboard": {"total_kg_co2e": 45, "details_kg_co2e": {"transporte": 30}}
		}`))
		require.NoError(t, err)
		assert.Equal(t, "## Oi", p.NarrativeReport)

		total, ok := p.DataForDashboard.Total()
		assert.True(t, ok)
		assert.Equal(t, 45.0, total)
	})

	t.Run("type error keeps the rest", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{
			"narrative_report": 12,
			"data_for_dashboard": {"total_kg_co2e": 45, "details_kg_co2e": {"transporte": 30}}
		}`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
		assert.Error(t, derr.Field(FieldNarrative))
		assert.Empty(t, p.NarrativeReport)
		require.NotNil(t, p.DataForDashboard)
		assert.Equal(t, []string{"transporte"}, p.DataForDashboard.DetailsKgCO2e.Keys())
	})

	t.Run("wrong-typed total is left unset", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{
			"narrative_report": "**ok**",
			"data_for_dashboard": {"total_kg_co2e": "45", "details_kg_co2e": {"transporte": 30}}
		}`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
		require.Len(t, derr.Fields, 1)
		assert.Equal(t, FieldTotal, derr.Fields[0].Field)
		assert.Nil(t, derr.Field(FieldDetails))

		assert.Equal(t, "**ok**", p.NarrativeReport)
		_, ok := p.DataForDashboard.Total()
		assert.False(t, ok)
		assert.Equal(t, []float64{30}, p.DataForDashboard.DetailsKgCO2e.Values())
	})

	t.Run("wrong-typed details are dropped", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"data_for_dashboard": {"total_kg_co2e": 45, "details_kg_co2e": {"transporte": "x"}}}`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
		assert.Error(t, derr.Field(FieldDetails))
		assert.Empty(t, p.DataForDashboard.DetailsKgCO2e)

		total, ok := p.DataForDashboard.Total()
		assert.True(t, ok)
		assert.Equal(t, 45.0, total)
	})

	t.Run("dashboard of the wrong shape", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"narrative_report": "x", "data_for_dashboard": [1, 2]}`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
		assert.Error(t, derr.Field(FieldDashboard))
		assert.Nil(t, p.DataForDashboard)
		assert.Equal(t, "x", p.NarrativeReport)
	})

	t.Run("document that is not an object", func(t *testing.T) {
		_, err := DecodePayload([]byte(`[1, 2]`))
		require.Error(t, err)
		var derr *DecodeError
		assert.False(t, errors.As(err, &derr))
	})

	t.Run("null fields are absent, not errors", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"narrative_report": null, "data_for_dashboard": {"total_kg_co2e": null}}`))
		require.NoError(t, err)
		_, ok := p.DataForDashboard.Total()
		assert.False(t, ok)
	})

	t.Run("syntax error leaves payload empty", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"narrative_report": `))
		require.Error(t, err)
		assert.Nil(t, p.DataForDashboard)
	})

	t.Run("missing total", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"data_for_dashboard": {"details_kg_co2e": {}}}`))
		require.NoError(t, err)
		_, ok := p.DataForDashboard.Total()
		assert.False(t, ok)
	})
}

func TestDashboardData_TotalNil(t *testing.T) {
	var d *DashboardData
	_, ok := d.Total()
	assert.False(t, ok)
}

func TestJSONMapValueScan(t *testing.T) {
	m := JSONMap{"km_carro": 300.0, "tipo_combustivel": "etanol"}
	v, err := m.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, m, scanned)

	nilValue, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", nilValue)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)
}

func TestReportPayload(t *testing.T) {
	r := &Report{
		TotalKgCO2e: 45,
		Details:     CategoryBreakdown{{"transporte", 30}, {"energia_eletrica", 10}, {"gas_cozinha", 5}},
		Narrative:   "**ok**",
	}

	data, err := r.PayloadJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"narrative_report": "**ok**",
		"data_for_dashboard": {
			"total_kg_co2e": 45,
			"details_kg_co2e": {"transporte": 30, "energia_eletrica": 10, "gas_cozinha": 5}
		}
	}`, string(data))

	back, err := DecodePayload(data)
	require.NoError(t, err)
	assert.Equal(t, r.Details, back.DataForDashboard.DetailsKgCO2e)
}
