// Package assessment turns questionnaire answers into per-pitfall scores and
// interpretation bands.
package assessment

import (
	"errors"
	"fmt"

	"pitfalls-server/catalog"
	"pitfalls-server/utils"
)

const (
	MinAnswer = 1
	MaxAnswer = catalog.ScaleSize

	scorePrecision = 2
)

var (
	ErrInvalidAnswers = errors.New("invalid answers")
	ErrAnswerCount    = fmt.Errorf("%w: expected %d answers", ErrInvalidAnswers, catalog.QuestionCount)
	ErrAnswerRange    = fmt.Errorf("%w: answers must be between %d and %d", ErrInvalidAnswers, MinAnswer, MaxAnswer)
	ErrInvalidOrder   = fmt.Errorf("%w: order must be a permutation of the question indices", ErrInvalidAnswers)
)

// CalculateScores averages the answers of each pitfall, rounded to two
// decimals. answers[i] is the answer to the statement at catalog index
// order[i]; an empty order means catalog order.
func CalculateScores(c *catalog.Catalog, answers []int, order []int) ([]float64, error) {
	if len(answers) != catalog.QuestionCount {
		return nil, fmt.Errorf("%w, got %d", ErrAnswerCount, len(answers))
	}
	if len(order) == 0 {
		order = c.Identity()
	} else if !c.ValidOrder(order) {
		return nil, ErrInvalidOrder
	}

	sums := make([]int, catalog.PitfallCount)
	counts := make([]int, catalog.PitfallCount)
	for i, ans := range answers {
		if ans < MinAnswer || ans > MaxAnswer {
			return nil, fmt.Errorf("%w (answer %d is %d)", ErrAnswerRange, i+1, ans)
		}
		p := c.PitfallOf(order[i])
		sums[p] += ans
		counts[p]++
	}

	scores := make([]float64, catalog.PitfallCount)
	for p := range scores {
		if counts[p] > 0 {
			scores[p] = utils.RoundTo(float64(sums[p])/float64(counts[p]), scorePrecision)
		}
	}
	return scores, nil
}

// FormatScores serializes a score vector for storage: comma-joined, two decimals.
func FormatScores(scores []float64) string {
	return utils.JoinFloats(scores, scorePrecision)
}

// ParseScores reads a stored score vector back. Any decimal form is accepted.
func ParseScores(s string) ([]float64, error) {
	scores, err := utils.ParseFloatList(s)
	if err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}
	if len(scores) != catalog.PitfallCount {
		return nil, fmt.Errorf("parse scores: expected %d values, got %d", catalog.PitfallCount, len(scores))
	}
	return scores, nil
}
