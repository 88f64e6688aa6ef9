package assessment

// Band is one of the three interpretation levels.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

const (
	lowText    = "Kecenderungan rendah: Anda jarang terjebak pada jebakan ini. Anda cenderung membuat keputusan dengan mempertimbangkan kompleksitas secara lebih baik."
	mediumText = "Kecenderungan sedang: Anda kadang-kadang terjebak, tetapi masih bisa mengelolanya. Perhatikan situasi di mana ini muncul."
	highText   = "Kecenderungan tinggi: Anda sering terjebak pada jebakan ini. Disarankan untuk lebih sadar dan mencari strategi untuk menghindarinya."
)

// Interpret maps an averaged score to its band. Both thresholds are inclusive
// on the lower band: 2.00 is low, 3.00 is medium.
func Interpret(score float64) Band {
	switch {
	case score <= 2:
		return BandLow
	case score <= 3:
		return BandMedium
	default:
		return BandHigh
	}
}

// Text returns the fixed interpretation shown to the respondent.
func (b Band) Text() string {
	switch b {
	case BandLow:
		return lowText
	case BandMedium:
		return mediumText
	default:
		return highText
	}
}

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	default:
		return "high"
	}
}
