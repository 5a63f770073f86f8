package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalRelations(t *testing.T) {
	iv := Interval{Start: 100, End: 200}

	assert.True(t, iv.Valid())
	assert.False(t, Interval{Start: 5, End: 4}.Valid())
	assert.True(t, iv.Contains(Interval{Start: 100, End: 200}))
	assert.False(t, iv.Contains(Interval{Start: 99, End: 150}))
	assert.True(t, iv.Overlaps(Interval{Start: 200, End: 300}))
	assert.False(t, iv.Overlaps(Interval{Start: 201, End: 300}))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "12.5", want: 12.5, ok: true},
		{in: "12,5", want: 12.5, ok: true},
		{in: " 7 ", want: 7, ok: true},
		{in: "", ok: false},
		{in: "abc", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDowntimeRecordDecodesFlexibleMinutes(t *testing.T) {
	body := []byte(`[
		{"Fecha":"12-03-2025","Desc Area":"Faena","Minutos":15.5,"Desc Responsable":"SSGG"},
		{"Fecha":"2025-03-13","Minutos":"7,25"},
		{"Fecha":"2025-03-14","Minutos":null},
		{"Fecha":"2025-03-15","Minutos":"n/a"}
	]`)

	var recs []DowntimeRecord
	require.NoError(t, sonic.Unmarshal(body, &recs))
	require.Len(t, recs, 4)
	assert.Equal(t, 15.5, float64(recs[0].Minutes))
	assert.Equal(t, "Faena", recs[0].Area)
	assert.Equal(t, 7.25, float64(recs[1].Minutes))
	assert.Zero(t, float64(recs[2].Minutes))
	assert.Zero(t, float64(recs[3].Minutes))
}

func TestNonConformityDecodesNumericFields(t *testing.T) {
	var nc NonConformity
	require.NoError(t, sonic.Unmarshal([]byte(`{"N_FOLIO":1234,"ANNIO":2025,"MES":"Marzo","AREA":"Faena"}`), &nc))
	assert.Equal(t, FlexString("1234"), nc.Folio)
	assert.Equal(t, FlexString("2025"), nc.Year)
	assert.Equal(t, FlexString("Marzo"), nc.Month)
}

func TestMonthNames(t *testing.T) {
	assert.Equal(t, "Marzo", MonthName(3))
	assert.Equal(t, "", MonthName(13))
	assert.Equal(t, 12, MonthShortIndex("Dic"))
	assert.Equal(t, 0, MonthShortIndex("Foo"))
	assert.True(t, DateFilter{}.Empty())
	assert.True(t, DateFilter{Year: 2025, Month: 3, Day: 1}.Complete())
}
