// Package survey runs one questionnaire session end to end: validate the
// respondent, score the answers, store the submission and build the report.
package survey

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"pitfalls-server/assessment"
	"pitfalls-server/catalog"
	"pitfalls-server/chart"
	"pitfalls-server/export"
	"pitfalls-server/models"
	"pitfalls-server/utils"
)

const DateLayout = "2006-01-02"

var (
	ErrValidation      = errors.New("validation failed")
	ErrMissingIdentity = fmt.Errorf("%w: name and email are required", ErrValidation)
	ErrNothingToExport = errors.New("no responses to export")
)

// Store is the persistence the service needs.
type Store interface {
	InsertResponse(ctx context.Context, sub *models.Submission) error
	ListResponses(ctx context.Context) ([]models.Submission, error)
	CountResponses(ctx context.Context) (int, error)
	LogAdminEvent(ctx context.Context, actor, action, notes string)
	RecentAdminEvents(ctx context.Context, limit int) ([]models.AdminEvent, error)
}

// Report is what the respondent sees after a successful submission.
type Report struct {
	Submission models.Submission
	Scores     []float64
	Results    []models.PitfallResult
	ChartPNG   []byte
}

// Session is the per-respondent state of an unsubmitted form.
type Session struct {
	ID        string
	TestDate  string
	Order     []int
	Questions []models.Question
}

type Service struct {
	catalog *catalog.Catalog
	store   Store
	log     *zap.Logger
	now     func() time.Time
	shuffle bool
}

type Option func(*Service)

// WithClock replaces time.Now, used for the server-assigned test date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithShuffle toggles randomized presentation order.
func WithShuffle(on bool) Option {
	return func(s *Service) { s.shuffle = on }
}

func NewService(c *catalog.Catalog, store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{catalog: c, store: store, log: logger, now: time.Now, shuffle: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Today returns the server-assigned test date.
func (s *Service) Today() string {
	return s.now().Format(DateLayout)
}

// NewSession prepares a form for one respondent. The presentation order is
// derived from the session id, so the shared catalog is never reordered.
func (s *Service) NewSession(id string) Session {
	order := s.catalog.Identity()
	if s.shuffle {
		order = s.catalog.Shuffle(rand.New(rand.NewSource(utils.SeedFrom(id))))
	}
	questions, _ := s.catalog.Ordered(order)
	return Session{ID: id, TestDate: s.Today(), Order: order, Questions: questions}
}

// SessionFromOrder rebuilds a session from a submitted presentation order,
// used to show the form again after a rejected submission.
func (s *Service) SessionFromOrder(id string, order []int) (Session, error) {
	if len(order) == 0 {
		order = s.catalog.Identity()
	}
	questions, err := s.catalog.Ordered(order)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return Session{ID: id, TestDate: s.Today(), Order: order, Questions: questions}, nil
}

// Score computes the score vector and report rows without storing anything.
func (s *Service) Score(answers, order []int) ([]float64, []models.PitfallResult, error) {
	scores, err := assessment.CalculateScores(s.catalog, answers, order)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return scores, s.results(scores), nil
}

func (s *Service) results(scores []float64) []models.PitfallResult {
	pitfalls := s.catalog.Pitfalls()
	out := make([]models.PitfallResult, len(scores))
	for i, score := range scores {
		band := assessment.Interpret(score)
		out[i] = models.PitfallResult{
			Pitfall:        pitfalls[i].Name,
			Score:          score,
			Band:           band.String(),
			Interpretation: band.Text(),
			Tip:            pitfalls[i].Tip,
		}
	}
	return out
}

// Chart renders the score vector against the pitfall names.
func (s *Service) Chart(scores []float64) ([]byte, error) {
	return chart.Render(s.catalog.PitfallNames(), scores)
}

// Submit validates, scores and stores one submission. Nothing is stored when
// validation fails. A storage failure is returned as is and not retried.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest) (*Report, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return nil, ErrMissingIdentity
	}

	scores, results, err := s.Score(req.Answers, req.Order)
	if err != nil {
		return nil, err
	}
	png, err := s.Chart(scores)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	sub := models.Submission{
		Name:     name,
		TestDate: s.Today(),
		Email:    email,
		Scores:   assessment.FormatScores(scores),
	}
	if err := s.store.InsertResponse(ctx, &sub); err != nil {
		return nil, err
	}
	s.log.Info("submission stored", zap.Int64("id", sub.ID), zap.String("test_date", sub.TestDate))

	return &Report{Submission: sub, Scores: scores, Results: results, ChartPNG: png}, nil
}

// AdminSummary returns the figures shown on the admin page.
func (s *Service) AdminSummary(ctx context.Context) (int, []models.AdminEvent, error) {
	n, err := s.store.CountResponses(ctx)
	if err != nil {
		return 0, nil, err
	}
	events, err := s.store.RecentAdminEvents(ctx, 5)
	if err != nil {
		return 0, nil, err
	}
	return n, events, nil
}

// RecordAdminEvent appends to the admin audit log.
func (s *Service) RecordAdminEvent(ctx context.Context, actor, action, notes string) {
	s.store.LogAdminEvent(ctx, actor, action, notes)
}

// Export builds the spreadsheet of all submissions. Callers must have
// authenticated the admin already.
func (s *Service) Export(ctx context.Context, actor string) ([]byte, error) {
	subs, err := s.store.ListResponses(ctx)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNothingToExport
	}
	data, err := export.Responses(subs)
	if err != nil {
		return nil, err
	}
	s.store.LogAdminEvent(ctx, actor, "export_responses", fmt.Sprintf("%d rows", len(subs)))
	return data, nil
}
