package assessment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pitfalls-server/assessment"
)

func TestInterpret_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  assessment.Band
	}{
		{0, assessment.BandLow},
		{1, assessment.BandLow},
		{1.75, assessment.BandLow},
		{2.0, assessment.BandLow},
		{2.01, assessment.BandMedium},
		{2.5, assessment.BandMedium},
		{3.0, assessment.BandMedium},
		{3.01, assessment.BandHigh},
		{4.25, assessment.BandHigh},
		{5, assessment.BandHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, assessment.Interpret(tc.score), "score %v", tc.score)
	}
}

func TestInterpret_IsPure(t *testing.T) {
	for _, s := range []float64{1, 2, 2.25, 3, 3.5, 5} {
		first := assessment.Interpret(s).Text()
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, assessment.Interpret(s).Text())
		}
	}
}

func TestBand_Texts(t *testing.T) {
	assert.Contains(t, assessment.BandLow.Text(), "Kecenderungan rendah")
	assert.Contains(t, assessment.BandMedium.Text(), "Kecenderungan sedang")
	assert.Contains(t, assessment.BandHigh.Text(), "Kecenderungan tinggi")

	assert.Equal(t, "low", assessment.BandLow.String())
	assert.Equal(t, "medium", assessment.BandMedium.String())
	assert.Equal(t, "high", assessment.BandHigh.String())
}
