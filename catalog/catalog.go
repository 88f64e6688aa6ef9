// Package catalog holds the questionnaire content: pitfalls, statements and
// the Likert scale. A Catalog is immutable once loaded and safe to share
// between requests.
package catalog

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pitfalls-server/models"
)

const (
	PitfallCount        = 7
	QuestionsPerPitfall = 4
	QuestionCount       = PitfallCount * QuestionsPerPitfall
	ScaleSize           = 5
)

//go:embed catalog.yaml
var defaultYAML []byte

// Catalog is the validated questionnaire definition.
type Catalog struct {
	title        string
	instructions string
	scale        []string
	defaultScale int
	pitfalls     []models.Pitfall
	questions    []models.Question
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog file, falling back to the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc models.CatalogYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		title:        strings.TrimSpace(doc.Title),
		instructions: strings.TrimSpace(doc.Instructions),
		scale:        append([]string(nil), doc.Scale...),
		defaultScale: doc.DefaultScale,
		pitfalls:     make([]models.Pitfall, len(doc.Pitfalls)),
		questions:    make([]models.Question, len(doc.Questions)),
	}
	for i, p := range doc.Pitfalls {
		p.Index = i
		c.pitfalls[i] = p
	}
	for i, q := range doc.Questions {
		q.Index = i
		c.questions[i] = q
	}
	return c, nil
}

func validate(doc models.CatalogYAML) error {
	if len(doc.Scale) != ScaleSize {
		return fmt.Errorf("scale must have %d labels, got %d", ScaleSize, len(doc.Scale))
	}
	seen := make(map[string]bool, len(doc.Scale))
	for i, label := range doc.Scale {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("scale label %d is empty", i+1)
		}
		if seen[label] {
			return fmt.Errorf("scale label %q is duplicated", label)
		}
		seen[label] = true
	}
	if doc.DefaultScale < 0 || doc.DefaultScale >= ScaleSize {
		return fmt.Errorf("default_scale must be between 0 and %d", ScaleSize-1)
	}

	if len(doc.Pitfalls) != PitfallCount {
		return fmt.Errorf("expected %d pitfalls, got %d", PitfallCount, len(doc.Pitfalls))
	}
	for i, p := range doc.Pitfalls {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("pitfall %d has no name", i)
		}
	}

	if len(doc.Questions) != QuestionCount {
		return fmt.Errorf("expected %d questions, got %d", QuestionCount, len(doc.Questions))
	}
	perPitfall := make([]int, PitfallCount)
	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d has no text", i+1)
		}
		if q.Pitfall < 0 || q.Pitfall >= PitfallCount {
			return fmt.Errorf("question %d references unknown pitfall %d", i+1, q.Pitfall)
		}
		perPitfall[q.Pitfall]++
	}
	for p, n := range perPitfall {
		if n != QuestionsPerPitfall {
			return fmt.Errorf("pitfall %q has %d questions, expected %d", doc.Pitfalls[p].Name, n, QuestionsPerPitfall)
		}
	}
	return nil
}

func (c *Catalog) Title() string        { return c.title }
func (c *Catalog) Instructions() string { return c.instructions }
func (c *Catalog) DefaultScale() int    { return c.defaultScale }

// Scale returns a copy of the Likert labels, lowest value first.
func (c *Catalog) Scale() []string {
	return append([]string(nil), c.scale...)
}

// Pitfalls returns a copy of the pitfall definitions in index order.
func (c *Catalog) Pitfalls() []models.Pitfall {
	return append([]models.Pitfall(nil), c.pitfalls...)
}

// PitfallNames returns pitfall names in index order.
func (c *Catalog) PitfallNames() []string {
	names := make([]string, len(c.pitfalls))
	for i, p := range c.pitfalls {
		names[i] = p.Name
	}
	return names
}

// Questions returns a copy of the statements in catalog order.
func (c *Catalog) Questions() []models.Question {
	return append([]models.Question(nil), c.questions...)
}

// PitfallOf returns the pitfall owning the question at catalog index q.
func (c *Catalog) PitfallOf(q int) int {
	return c.questions[q].Pitfall
}

// Value maps a scale label to its numeric value 1..5.
func (c *Catalog) Value(label string) (int, bool) {
	for i, l := range c.scale {
		if l == label {
			return i + 1, true
		}
	}
	return 0, false
}

// Label maps a numeric value 1..5 to its scale label.
func (c *Catalog) Label(value int) (string, bool) {
	if value < 1 || value > len(c.scale) {
		return "", false
	}
	return c.scale[value-1], true
}

// Identity returns the catalog order 0..QuestionCount-1.
func (c *Catalog) Identity() []int {
	order := make([]int, len(c.questions))
	for i := range order {
		order[i] = i
	}
	return order
}

// Shuffle returns a fresh presentation order for one session. The catalog
// itself is never reordered.
func (c *Catalog) Shuffle(r *rand.Rand) []int {
	order := c.Identity()
	r.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// ValidOrder reports whether order is a permutation of the catalog indices.
func (c *Catalog) ValidOrder(order []int) bool {
	if len(order) != len(c.questions) {
		return false
	}
	used := make([]bool, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(order) || used[idx] {
			return false
		}
		used[idx] = true
	}
	return true
}

// Ordered returns the statements in the given presentation order.
func (c *Catalog) Ordered(order []int) ([]models.Question, error) {
	if !c.ValidOrder(order) {
		return nil, fmt.Errorf("order is not a permutation of %d questions", len(c.questions))
	}
	out := make([]models.Question, len(order))
	for i, idx := range order {
		out[i] = c.questions[idx]
	}
	return out, nil
}
