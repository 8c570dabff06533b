package contracts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignals_Truthy(t *testing.T) {
	signals := Signals{
		"gap_up":       true,
		"gap_down":     false,
		"early_move":   3.4,
		"zero_move":    0.0,
		"int_flag":     1,
		"label":        "x",
		"empty_label":  "",
		"null_signal":  nil,
		"slice_signal": []string{"a"},
	}

	tests := []struct {
		name string
		want bool
	}{
		{"gap_up", true},
		{"gap_down", false},
		{"early_move", true},
		{"zero_move", false},
		{"int_flag", true},
		{"label", true},
		{"empty_label", false},
		{"null_signal", false},
		{"slice_signal", true},
		{"absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, signals.Truthy(tt.name))
		})
	}
}

func TestSignals_SetClearActive(t *testing.T) {
	s := Signals{}
	s.Set(SignalHighRelVol, true)
	s.Set(SignalGapUp, true)
	s.Set(SignalGapDown, false)

	assert.Equal(t, []string{SignalGapUp, SignalHighRelVol}, s.Active())

	s.Clear(SignalGapUp)
	assert.False(t, s.Truthy(SignalGapUp))
	assert.Equal(t, []string{SignalHighRelVol}, s.Active())
}

func TestSignals_CloneIsIndependent(t *testing.T) {
	s := Signals{SignalGapUp: true}
	c := s.Clone()
	c.Set(SignalGapUp, false)

	assert.True(t, s.Truthy(SignalGapUp))
	assert.Nil(t, Signals(nil).Clone())
}

func TestSignals_NumbersDecodeTruthy(t *testing.T) {
	var s Signals
	require.NoError(t, json.Unmarshal([]byte(`{"early_move": -2.7, "squeeze_watch": true}`), &s))

	assert.True(t, s.Truthy(SignalEarlyMove))
	assert.True(t, s.Truthy(SignalSqueezeWatch))
}
