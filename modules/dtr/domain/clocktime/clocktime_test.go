package clocktime

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, ""},
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"canonical", "08:00", "08:00"},
		{"single digit hour", "8:05", "08:05"},
		{"seconds dropped", "13:45:59", "13:45"},
		{"am", "7:30 AM", "07:30"},
		{"pm", "1:15 pm", "13:15"},
		{"noon", "12:00 PM", "12:00"},
		{"midnight", "12:10 AM", "00:10"},
		{"dotted meridiem", "5:00 p.m.", "17:00"},
		{"fraction", 0.5, "12:00"},
		{"fraction rounds", 0.33333, "08:00"},
		{"zero", 0.0, "00:00"},
		{"almost midnight wraps", 0.99999, "00:00"},
		{"float32", float32(0.25), "06:00"},
		{"int zero", 0, "00:00"},
		{"numeric string", "0.75", "18:00"},
		{"date-time serial", 45870.5, "12:00"},
		{"json number", json.Number("0.375"), "09:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.String())
			assert.Equal(t, tc.want == "", v.IsAbsent())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, raw := range []any{
		"abc", "24:00", "7:60", "7:5", "123:00", "1:2:3:4", "13:00 PM", "0:30 AM",
		"12:00:61", -0.25, 3.0, "2", math.Inf(1), true, []string{"08:00"},
	} {
		t.Run(fmt.Sprint(raw), func(t *testing.T) {
			_, err := Parse(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTime)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, raw, pe.Raw)
		})
	}
}

func TestParse_FractionMatchesRoundedMinutes(t *testing.T) {
	for i := 0; i < 5000; i++ {
		f := float64(i) / 5000
		v, err := Parse(f)
		require.NoError(t, err)
		total := int(math.Round(f*1440)) % 1440
		assert.Equal(t, fmt.Sprintf("%02d:%02d", total/60, total%60), v.String(), "f=%v", f)
	}
}

func TestParse_IdempotentOnCanonical(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m += 7 {
			s := fmt.Sprintf("%02d:%02d", h, m)
			first, err := Parse(s)
			require.NoError(t, err)
			second, err := Parse(first.String())
			require.NoError(t, err)
			assert.Equal(t, s, first.String())
			assert.Equal(t, first, second)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	type payload struct {
		In  Value `json:"in"`
		Out Value `json:"out"`
	}
	p := payload{In: MustNew(8, 0)}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"in":"08:00","out":null}`, string(data))

	var back payload
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	require.Error(t, json.Unmarshal([]byte(`{"in":"nope"}`), &back))
}

func TestNew(t *testing.T) {
	v, err := New(23, 59)
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, v.Minutes())
	assert.Equal(t, -1, Absent().Minutes())

	_, err = New(24, 0)
	require.ErrorIs(t, err, ErrInvalidTime)
	assert.Panics(t, func() { MustNew(-1, 0) })
}
