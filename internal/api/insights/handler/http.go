package insightsHandler

import (
	insightsService "DermaTrack/internal/api/insights/service"
	"DermaTrack/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type InsightsHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	insightsService insightsService.IInsightsService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	insightsService insightsService.IInsightsService,
) *InsightsHandler {
	return &InsightsHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		insightsService: insightsService,
	}
}

func (h *InsightsHandler) Start(srv fiber.Router) {
	insights := srv.Group("/insights")

	insights.Get("/progress", h.middleware.NewTokenMiddleware, h.GetProgressSummary)
	insights.Get("/weekly", h.middleware.NewTokenMiddleware, h.GetWeeklyTrends)
	insights.Get("/triggers", h.middleware.NewTokenMiddleware, h.GetTriggerCorrelation)
	insights.Get("/products", h.middleware.NewTokenMiddleware, h.GetProductEffectiveness)
}
