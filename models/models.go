package models

import (
	"time"
)

// Pitfall struct represents one decision-making bias category.
type Pitfall struct {
	Index int    `json:"index" yaml:"-"`
	Name  string `json:"name" yaml:"name"`
	Tip   string `json:"tip" yaml:"tip"`
}

// Question struct represents one Likert statement and the pitfall it measures.
type Question struct {
	Index   int    `json:"index" yaml:"-"` // Stable position in the catalog, 0-based
	Text    string `json:"text" yaml:"text"`
	Pitfall int    `json:"pitfall" yaml:"pitfall"`
}

// CatalogYAML for parsing catalog.yaml
type CatalogYAML struct {
	Title        string     `yaml:"title"`
	Instructions string     `yaml:"instructions"`
	Scale        []string   `yaml:"scale"`
	DefaultScale int        `yaml:"default_scale"` // 0-based label preselected in the form
	Pitfalls     []Pitfall  `yaml:"pitfalls"`
	Questions    []Question `yaml:"questions"`
}

// Submission struct represents one persisted row of the responses table.
type Submission struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	TestDate string `json:"test_date"` // YYYY-MM-DD
	Email    string `json:"email"`
	Scores   string `json:"scores"` // 7 comma-joined values, pitfall order
}

// AdminEvent represents an entry in the admin_events table
type AdminEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes"`
}

// PitfallResult is one row of the report shown after a submission.
type PitfallResult struct {
	Pitfall        string  `json:"pitfall"`
	Score          float64 `json:"score"`
	Band           string  `json:"band"`
	Interpretation string  `json:"interpretation"`
	Tip            string  `json:"tip"`
}

// ScoreRequest carries answers in presentation order. Order holds the catalog
// index of each presented statement; empty means catalog order.
type ScoreRequest struct {
	Answers []int `json:"answers" binding:"required,dive,likert"`
	Order   []int `json:"order"`
}

// SubmitRequest for submitting a completed questionnaire
type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Answers []int  `json:"answers" binding:"required,dive,likert"`
	Order   []int  `json:"order"`
}

// ScoreResponse for the compute-only endpoint
type ScoreResponse struct {
	Scores  []float64       `json:"scores"`
	Results []PitfallResult `json:"results"`
}

// SubmissionResponse for a stored submission
type SubmissionResponse struct {
	Submission Submission      `json:"submission"`
	Scores     []float64       `json:"scores"`
	Results    []PitfallResult `json:"results"`
	ChartPNG   string          `json:"chart_png"` // base64
}

// CatalogResponse exposes the questionnaire content to API clients.
type CatalogResponse struct {
	Title     string     `json:"title"`
	Scale     []string   `json:"scale"`
	Pitfalls  []Pitfall  `json:"pitfalls"`
	Questions []Question `json:"questions"`
	Order     []int      `json:"order"` // Suggested presentation order for this session
	TestDate  string     `json:"test_date"`
}

// AdminTokenRequest for exchanging the admin password for a token
type AdminTokenRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}
