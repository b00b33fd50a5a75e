package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want TopicalMode
	}{
		{"", ModeGeneral},
		{"general", ModeGeneral},
		{"  Sensors ", ModeSensors},
		{"crop-analysis", ModeCropAnalysis},
		{"PEST-DETECTION", ModePestDetection},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMode_Unknown(t *testing.T) {
	_, err := ParseMode("finance")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestAllModesAreValid(t *testing.T) {
	require.Len(t, AllModes, len(ValidModes))
	for _, m := range AllModes {
		assert.True(t, ValidModes[m], m)
		assert.NotEmpty(t, m.Label())
	}
}

func TestMessageClone_DoesNotShareState(t *testing.T) {
	c := 90
	orig := Message{Suggestions: []string{"a", "b"}, Confidence: &c}
	cp := orig.Clone()
	cp.Suggestions[0] = "changed"
	*cp.Confidence = 10

	assert.Equal(t, "a", orig.Suggestions[0])
	assert.Equal(t, 90, *orig.Confidence)
}

func TestRangeClamp(t *testing.T) {
	assert.Equal(t, 5.5, RangeSoilPh.Clamp(3))
	assert.Equal(t, 7.5, RangeSoilPh.Clamp(9))
	assert.True(t, RangeSoilPh.Contains(6.5))
	assert.Equal(t, 85, ClampConfidence(40, 85, 98))
	assert.Equal(t, 98, ClampConfidence(140, 85, 98))
}
