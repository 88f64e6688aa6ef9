// --- pitfalls-server/handlers/survey_handlers.go ---
package handlers

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pitfalls-server/assessment"
	"pitfalls-server/catalog"
	"pitfalls-server/models"
	"pitfalls-server/survey"
	"pitfalls-server/utils"
)

const (
	msgMissingIdentity = "Nama dan Email harus diisi."
	msgInvalidAnswers  = "Jawaban tidak lengkap atau tidak valid. Silakan periksa kembali."
	msgInvalidForm     = "Formulir tidak valid. Silakan isi ulang."
	msgSaveFailed      = "Terjadi kesalahan saat menyimpan hasil. Silakan coba lagi."
)

// formPage carries what form.html needs.
type formPage struct {
	Title        string
	Instructions string
	Scale        []string
	Session      survey.Session
	Answers      []int // preselected values, presentation order
	Name         string
	Email        string
	Error        string
}

func newFormPage(svc *survey.Service, sess survey.Session) formPage {
	c := svc.Catalog()
	answers := make([]int, len(sess.Questions))
	for i := range answers {
		answers[i] = c.DefaultScale() + 1
	}
	return formPage{
		Title:        c.Title(),
		Instructions: c.Instructions(),
		Scale:        c.Scale(),
		Session:      sess,
		Answers:      answers,
	}
}

// ShowForm renders the questionnaire with a fresh presentation order.
// GET /
func ShowForm(svc *survey.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := svc.NewSession(uuid.NewString())
		c.HTML(http.StatusOK, "form", newFormPage(svc, sess))
	}
}

// SubmitForm scores and stores a form submission, or shows the form again.
// POST /submit
func SubmitForm(svc *survey.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.PostForm("session_id")
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
		}
		var sess survey.Session
		order, err := utils.ParseIntList(c.PostForm("order"))
		if err == nil {
			sess, err = svc.SessionFromOrder(sessionID, order)
		}
		if err != nil {
			page := newFormPage(svc, svc.NewSession(sessionID))
			page.Name, page.Email = c.PostForm("name"), c.PostForm("email")
			page.Error = msgInvalidForm
			c.HTML(http.StatusBadRequest, "form", page)
			return
		}

		// Radios are named by presentation position.
		answers := make([]int, catalog.QuestionCount)
		for i := range answers {
			answers[i], _ = strconv.Atoi(c.PostForm("answer_" + strconv.Itoa(i)))
		}
		req := models.SubmitRequest{
			Name:    c.PostForm("name"),
			Email:   c.PostForm("email"),
			Answers: answers,
			Order:   sess.Order,
		}

		report, err := svc.Submit(c.Request.Context(), req)
		if err != nil {
			page := newFormPage(svc, sess)
			page.Name, page.Email = req.Name, req.Email
			for i, a := range answers {
				if a >= assessment.MinAnswer && a <= assessment.MaxAnswer {
					page.Answers[i] = a
				}
			}
			switch {
			case errors.Is(err, survey.ErrMissingIdentity):
				page.Error = msgMissingIdentity
				c.HTML(http.StatusUnprocessableEntity, "form", page)
			case errors.Is(err, survey.ErrValidation):
				page.Error = msgInvalidAnswers
				c.HTML(http.StatusUnprocessableEntity, "form", page)
			default:
				logger.Error("failed to store submission", zap.Error(err))
				page.Error = msgSaveFailed
				c.HTML(http.StatusInternalServerError, "form", page)
			}
			return
		}

		c.HTML(http.StatusOK, "result", gin.H{
			"Title":      svc.Catalog().Title(),
			"Submission": report.Submission,
			"Results":    report.Results,
			"Chart":      template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(report.ChartPNG)),
		})
	}
}

// ChartImage renders the bar chart for a comma-joined score vector.
// GET /chart.png?scores=3.00,2.25,...
func ChartImage(svc *survey.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		scores, err := assessment.ParseScores(c.Query("scores"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		png, err := svc.Chart(scores)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render chart"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

// Healthz reports liveness.
// GET /healthz
func Healthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
