// --- pitfalls-server/handlers/admin_handlers.go ---
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pitfalls-server/export"
	"pitfalls-server/middleware"
	"pitfalls-server/models"
	"pitfalls-server/survey"
)

const (
	msgWrongPassword   = "Password salah."
	msgNothingToExport = "Tidak ada data untuk diekspor."
	msgAdminFailed     = "Gagal memuat data admin."
)

func adminPage(c *gin.Context, svc *survey.Service, logger *zap.Logger, status int, authenticated bool, errMsg, info string) {
	data := gin.H{
		"Title":         "Admin · " + svc.Catalog().Title(),
		"Authenticated": authenticated,
		"Error":         errMsg,
		"Info":          info,
	}
	if authenticated {
		count, events, err := svc.AdminSummary(c.Request.Context())
		if err != nil {
			logger.Error("failed to load admin summary", zap.Error(err))
			data["Error"] = msgAdminFailed
		}
		data["ResponseCount"] = count
		data["RecentEvents"] = events
	}
	c.HTML(status, "admin", data)
}

func setAdminCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AdminCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
}

// AdminPage shows the login form, or the dashboard for an authenticated admin.
// GET /admin
func AdminPage(svc *survey.Service, auth *middleware.Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPage(c, svc, logger, http.StatusOK, auth.Authenticated(c), "", "")
	}
}

// AdminLogin checks the admin password and starts an admin session.
// POST /admin/login
func AdminLogin(svc *survey.Service, auth *middleware.Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AdminTokenRequest
		var token string
		err := c.ShouldBind(&req)
		if err == nil {
			token, err = auth.Login(req.Password)
		}
		if err != nil {
			logger.Warn("admin login rejected", zap.String("client_ip", c.ClientIP()))
			adminPage(c, svc, logger, http.StatusUnauthorized, false, msgWrongPassword, "")
			return
		}

		svc.RecordAdminEvent(c.Request.Context(), middleware.AdminSubject, "login", c.ClientIP())
		setAdminCookie(c, token, int(auth.TTL().Seconds()))
		c.Redirect(http.StatusSeeOther, "/admin")
	}
}

// AdminLogout ends the admin session.
// POST /admin/logout
func AdminLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		setAdminCookie(c, "", -1)
		c.Redirect(http.StatusSeeOther, "/admin")
	}
}

// AdminExport downloads all responses as a spreadsheet.
// GET /admin/export
func AdminExport(svc *survey.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := svc.Export(c.Request.Context(), c.GetString("admin_subject"))
		if errors.Is(err, survey.ErrNothingToExport) {
			adminPage(c, svc, logger, http.StatusOK, true, "", msgNothingToExport)
			return
		}
		if err != nil {
			logger.Error("export failed", zap.Error(err))
			adminPage(c, svc, logger, http.StatusInternalServerError, true, "Ekspor gagal.", "")
			return
		}
		sendWorkbook(c, data)
	}
}

func sendWorkbook(c *gin.Context, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, export.ContentType, data)
}
