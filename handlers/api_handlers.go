// --- pitfalls-server/handlers/api_handlers.go ---
package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pitfalls-server/middleware"
	"pitfalls-server/models"
	"pitfalls-server/survey"
)

// GetCatalog returns the questionnaire content and a presentation order for
// a new session.
// GET /api/v1/catalog
func GetCatalog(svc *survey.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat := svc.Catalog()
		sess := svc.NewSession(uuid.NewString())
		c.JSON(http.StatusOK, models.CatalogResponse{
			Title:     cat.Title(),
			Scale:     cat.Scale(),
			Pitfalls:  cat.Pitfalls(),
			Questions: cat.Questions(),
			Order:     sess.Order,
			TestDate:  sess.TestDate,
		})
	}
}

// ComputeScores scores a set of answers without storing anything.
// POST /api/v1/scores
func ComputeScores(svc *survey.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		scores, results, err := svc.Score(req.Answers, req.Order)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, models.ScoreResponse{Scores: scores, Results: results})
	}
}

// CreateSubmission validates, scores and stores a submission.
// POST /api/v1/submissions
func CreateSubmission(svc *survey.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := svc.Submit(c.Request.Context(), req)
		if errors.Is(err, survey.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			logger.Error("failed to store submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store submission"})
			return
		}
		c.JSON(http.StatusCreated, models.SubmissionResponse{
			Submission: report.Submission,
			Scores:     report.Scores,
			Results:    report.Results,
			ChartPNG:   base64.StdEncoding.EncodeToString(report.ChartPNG),
		})
	}
}

// IssueAdminToken exchanges the admin password for a bearer token.
// POST /api/v1/admin/token
func IssueAdminToken(svc *survey.Service, auth *middleware.Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AdminTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, err := auth.Login(req.Password)
		if err != nil {
			logger.Warn("admin token rejected", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}
		svc.RecordAdminEvent(c.Request.Context(), middleware.AdminSubject, "token_issued", c.ClientIP())
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(auth.TTL().Seconds())})
	}
}

// ExportResponses downloads all responses as a spreadsheet, or reports that
// there is nothing to export.
// GET /api/v1/admin/export
func ExportResponses(svc *survey.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := svc.Export(c.Request.Context(), c.GetString("admin_subject"))
		if errors.Is(err, survey.ErrNothingToExport) {
			c.JSON(http.StatusOK, gin.H{"message": msgNothingToExport})
			return
		}
		if err != nil {
			logger.Error("export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export responses"})
			return
		}
		sendWorkbook(c, data)
	}
}
