package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"pitfalls-server/catalog"
	"pitfalls-server/db"
	"pitfalls-server/export"
	"pitfalls-server/middleware"
	"pitfalls-server/survey"
	"pitfalls-server/utils"
)

const testPassword = "rahasia"

type testEnv struct {
	router *gin.Engine
	svc    *survey.Service
	store  *db.Store
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	store, err := db.InitDB(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "responses.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.CreateSchema(ctx))

	c, err := catalog.Default()
	require.NoError(t, err)
	svc := survey.NewService(c, store, logger, survey.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}))
	auth, err := middleware.NewAuthenticator(middleware.AdminAuthConfig{
		Password: testPassword,
		Issuer:   "pitfalls-test",
	}, logger)
	require.NoError(t, err)

	router, err := NewRouter(svc, auth, logger)
	require.NoError(t, err)
	return &testEnv{router: router, svc: svc, store: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	n, err := e.store.CountResponses(context.Background())
	require.NoError(t, err)
	return n
}

func formValues(name, email string, answer int) url.Values {
	form := url.Values{}
	form.Set("session_id", "6f1c1c2e-2b1a-4b59-8a65-7c7c0e1b8f11")
	form.Set("order", utils.JoinInts(identity()))
	form.Set("name", name)
	form.Set("email", email)
	for i := 0; i < catalog.QuestionCount; i++ {
		form.Set("answer_"+strconv.Itoa(i), strconv.Itoa(answer))
	}
	return form
}

func identity() []int {
	order := make([]int, catalog.QuestionCount)
	for i := range order {
		order[i] = i
	}
	return order
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestShowForm(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, catalog.QuestionCount, strings.Count(body, "<legend>Pernyataan "))
	assert.Equal(t, catalog.QuestionCount*catalog.ScaleSize, strings.Count(body, `type="radio"`))
	// Netral is preselected on every statement.
	assert.Equal(t, catalog.QuestionCount, strings.Count(body, `value="3" checked`))
	assert.Contains(t, body, "2024-05-01")
}

func TestSubmitForm_Success(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(postForm("/submit", formValues("Ani", "ani@example.com", 3)))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Hasil telah disimpan.")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Equal(t, catalog.PitfallCount, strings.Count(body, "<td>3.00</td>"))
	assert.Equal(t, 1, env.count(t))

	subs, err := env.store.ListResponses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.00,3.00,3.00,3.00,3.00,3.00,3.00", subs[0].Scores)
	assert.Equal(t, "2024-05-01", subs[0].TestDate)
}

func TestSubmitForm_MissingName(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(postForm("/submit", formValues("", "ani@example.com", 4)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, msgMissingIdentity)
	// The form keeps the given answers.
	assert.Equal(t, catalog.QuestionCount, strings.Count(body, `value="4" checked`))
	assert.Zero(t, env.count(t))
}

func TestSubmitForm_BadAnswers(t *testing.T) {
	env := newTestEnv(t)
	form := formValues("Ani", "ani@example.com", 3)
	form.Del("answer_7")
	w := env.do(postForm("/submit", form))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), msgInvalidAnswers)
	assert.Zero(t, env.count(t))
}

func TestSubmitForm_BadOrder(t *testing.T) {
	env := newTestEnv(t)
	form := formValues("Ani", "ani@example.com", 3)
	form.Set("order", "1,1,1")
	w := env.do(postForm("/submit", form))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), msgInvalidForm)
	assert.Zero(t, env.count(t))
}

func TestChartImage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/chart.png?scores=3.00,2.25,1.50,4.75,5.00,1.00,2.50", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = env.do(httptest.NewRequest(http.MethodGet, "/chart.png?scores=1,2", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Submit(context.Background(), submitReq(3))
	require.NoError(t, err)

	w := env.do(postForm("/admin/login", url.Values{"password": {"salah"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), msgWrongPassword)
	assert.Empty(t, w.Header().Get("Set-Cookie"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/export", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestAdminExport_StaleCookieRedirects(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Submit(context.Background(), submitReq(3))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/export", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AdminCookie, Value: "expired-or-forged"})
	w := env.do(req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.NotEqual(t, export.ContentType, w.Header().Get("Content-Type"))
}

func adminCookie(t *testing.T, env *testEnv) *http.Cookie {
	t.Helper()
	w := env.do(postForm("/admin/login", url.Values{"password": {testPassword}}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AdminCookie {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("admin cookie not set")
	return nil
}

func TestAdminExport_Empty(t *testing.T) {
	env := newTestEnv(t)
	cookie := adminCookie(t, env)

	req := httptest.NewRequest(http.MethodGet, "/admin/export", nil)
	req.AddCookie(cookie)
	w := env.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), msgNothingToExport)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestAdminExport_Workbook(t *testing.T) {
	env := newTestEnv(t)
	for _, v := range []int{3, 5} {
		_, err := env.svc.Submit(context.Background(), submitReq(v))
		require.NoError(t, err)
	}
	cookie := adminCookie(t, env)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Download Excel")
	assert.Contains(t, w.Body.String(), "Jumlah respons tersimpan: 2")

	req = httptest.NewRequest(http.MethodGet, "/admin/export", nil)
	req.AddCookie(cookie)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), export.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, export.Columns, rows[0])
	assert.Equal(t, "5.00,5.00,5.00,5.00,5.00,5.00,5.00", rows[2][4])
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.AdminCookie+"=;")
}
