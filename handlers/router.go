package handlers

import (
	"fmt"
	"html/template"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pitfalls-server/assessment"
	"pitfalls-server/middleware"
	"pitfalls-server/survey"
	"pitfalls-server/templates"
	"pitfalls-server/utils"
)

// TemplateFuncs are the helpers available to the HTML pages.
var TemplateFuncs = template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"joinInts": utils.JoinInts,
	"score":    func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
}

// RegisterValidators adds the custom binding rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("likert", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= assessment.MinAnswer && n <= assessment.MaxAnswer
	})
}

// NewRouter wires every route of the questionnaire server.
func NewRouter(svc *survey.Service, auth *middleware.Authenticator, logger *zap.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}
	renderer, err := templates.Renderer(TemplateFuncs)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	router.GET("/healthz", Healthz())

	// Questionnaire pages
	router.GET("/", ShowForm(svc))
	router.POST("/submit", SubmitForm(svc, logger))
	router.GET("/chart.png", ChartImage(svc))

	// Admin UI Routes
	router.GET("/admin", AdminPage(svc, auth, logger))
	router.POST("/admin/login", AdminLogin(svc, auth, logger))
	router.POST("/admin/logout", AdminLogout())
	admin := router.Group("/admin")
	admin.Use(auth.AdminPageAuth("/admin"))
	admin.Use(middleware.RoleCheckMiddleware([]string{middleware.RoleAdmin}))
	{
		admin.GET("/export", AdminExport(svc, logger))
	}

	// API Routes (version 1)
	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/catalog", GetCatalog(svc))
		apiV1.POST("/scores", ComputeScores(svc))
		apiV1.POST("/submissions", CreateSubmission(svc, logger))
		apiV1.POST("/admin/token", IssueAdminToken(svc, auth, logger))
	}
	apiAdmin := apiV1.Group("/admin")
	apiAdmin.Use(auth.AdminAuth())
	apiAdmin.Use(middleware.RoleCheckMiddleware([]string{middleware.RoleAdmin}))
	{
		apiAdmin.GET("/export", ExportResponses(svc, logger))
	}

	return router, nil
}
