package survey_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"pitfalls-server/assessment"
	"pitfalls-server/catalog"
	"pitfalls-server/db"
	"pitfalls-server/export"
	"pitfalls-server/models"
	"pitfalls-server/survey"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

func newService(t *testing.T, opts ...survey.Option) (*survey.Service, *db.Store) {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "responses.db")
	store, err := db.InitDB(ctx, db.DriverSQLite, dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.CreateSchema(ctx))

	c, err := catalog.Default()
	require.NoError(t, err)
	opts = append([]survey.Option{survey.WithClock(fixedNow)}, opts...)
	return survey.NewService(c, store, zaptest.NewLogger(t), opts...), store
}

func answersOf(v int) []int {
	a := make([]int, catalog.QuestionCount)
	for i := range a {
		a[i] = v
	}
	return a
}

func TestSubmit_AllNeutral(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	report, err := svc.Submit(ctx, models.SubmitRequest{
		Name:    "  Ani ",
		Email:   "ani@example.com",
		Answers: answersOf(3),
	})
	require.NoError(t, err)

	assert.Equal(t, "Ani", report.Submission.Name)
	assert.Equal(t, "2024-05-01", report.Submission.TestDate)
	assert.Equal(t, "3.00,3.00,3.00,3.00,3.00,3.00,3.00", report.Submission.Scores)
	assert.Positive(t, report.Submission.ID)
	require.Len(t, report.Results, catalog.PitfallCount)
	for _, r := range report.Results {
		assert.Equal(t, 3.0, r.Score)
		assert.Equal(t, "medium", r.Band)
		assert.Equal(t, assessment.BandMedium.Text(), r.Interpretation)
		assert.NotEmpty(t, r.Tip)
	}
	assert.True(t, bytes.HasPrefix(report.ChartPNG, []byte("\x89PNG")))

	subs, err := store.ListResponses(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, report.Submission, subs[0])
}

func TestSubmit_Extremes(t *testing.T) {
	svc, _ := newService(t)
	for v, band := range map[int]string{1: "low", 5: "high"} {
		report, err := svc.Submit(context.Background(), models.SubmitRequest{Name: "A", Email: "a@b.c", Answers: answersOf(v)})
		require.NoError(t, err)
		for _, r := range report.Results {
			assert.Equal(t, float64(v), r.Score)
			assert.Equal(t, band, r.Band)
		}
	}
}

func TestSubmit_MissingIdentityStoresNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	for _, req := range []models.SubmitRequest{
		{Name: "", Email: "a@b.c", Answers: answersOf(3)},
		{Name: "Ani", Email: "   ", Answers: answersOf(3)},
		{Name: "", Email: "", Answers: nil},
	} {
		_, err := svc.Submit(ctx, req)
		assert.ErrorIs(t, err, survey.ErrMissingIdentity)
		assert.ErrorIs(t, err, survey.ErrValidation)
	}

	n, err := store.CountResponses(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmit_InvalidAnswersStoreNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	bad := answersOf(3)
	bad[0] = 9
	_, err := svc.Submit(ctx, models.SubmitRequest{Name: "Ani", Email: "a@b.c", Answers: bad})
	assert.ErrorIs(t, err, survey.ErrValidation)
	assert.ErrorIs(t, err, assessment.ErrAnswerRange)

	_, err = svc.Submit(ctx, models.SubmitRequest{Name: "Ani", Email: "a@b.c", Answers: answersOf(3)[:20]})
	assert.ErrorIs(t, err, assessment.ErrAnswerCount)

	n, err := store.CountResponses(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmit_ShuffledSessionMatchesCatalogOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	sess := svc.NewSession("0b6d0f0e-8d4e-4b8c-9a55-3f0f4d1c2b7a")
	require.True(t, svc.Catalog().ValidOrder(sess.Order))

	// Agree only with statements of the first pitfall.
	presented := make([]int, len(sess.Order))
	for i, idx := range sess.Order {
		presented[i] = 1
		if svc.Catalog().PitfallOf(idx) == 0 {
			presented[i] = 5
		}
	}
	report, err := svc.Submit(ctx, models.SubmitRequest{Name: "A", Email: "a@b.c", Answers: presented, Order: sess.Order})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1, 1, 1, 1, 1, 1}, report.Scores)
}

func TestNewSession(t *testing.T) {
	svc, _ := newService(t)
	a := svc.NewSession("session-a")
	assert.Equal(t, "2024-05-01", a.TestDate)
	assert.Len(t, a.Questions, catalog.QuestionCount)
	assert.Equal(t, a.Order, svc.NewSession("session-a").Order)
	for i, q := range a.Questions {
		assert.Equal(t, a.Order[i], q.Index)
	}

	plain, _ := newService(t, survey.WithShuffle(false))
	assert.Equal(t, plain.Catalog().Identity(), plain.NewSession("session-a").Order)

	_, err := svc.SessionFromOrder("x", []int{1, 1})
	assert.ErrorIs(t, err, survey.ErrValidation)
	s, err := svc.SessionFromOrder("x", a.Order)
	require.NoError(t, err)
	assert.Equal(t, a.Questions, s.Questions)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Export(ctx, "admin")
	assert.ErrorIs(t, err, survey.ErrNothingToExport)

	for _, v := range []int{3, 3} {
		_, err := svc.Submit(ctx, models.SubmitRequest{Name: "Ani", Email: "a@b.c", Answers: answersOf(v)})
		require.NoError(t, err)
	}

	data, err := svc.Export(ctx, "admin")
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rows[1][1:], rows[2][1:])

	n, events, err := svc.AdminSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NotEmpty(t, events)
	assert.Equal(t, "export_responses", events[0].Action)
}

type failingStore struct {
	survey.Store
}

func (failingStore) InsertResponse(context.Context, *models.Submission) error {
	return errors.New("disk full")
}

func TestSubmit_StorageFailure(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	svc := survey.NewService(c, failingStore{}, nil)

	_, err = svc.Submit(context.Background(), models.SubmitRequest{Name: "A", Email: "a@b.c", Answers: answersOf(3)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, survey.ErrValidation)
}
