package analysisHandler

import (
	analysisService "DermaTrack/internal/api/analysis/service"
	"DermaTrack/internal/middleware"
	"DermaTrack/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AnalysisHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	analysisService analysisService.IAnalysisService
	utils           utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	analysisService analysisService.IAnalysisService,
	utils utils.IUtils,
) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		analysisService: analysisService,
		utils:           utils,
	}
}

func (h *AnalysisHandler) Start(srv fiber.Router) {
	skin := srv.Group("/skin")

	skin.Post("/analyses", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.AnalyzeImage)
	skin.Get("/analyses", h.middleware.NewTokenMiddleware, h.GetRecords)
	skin.Get("/analyses/:image_id", h.middleware.NewTokenMiddleware, h.GetRecord)
	skin.Delete("/analyses", h.middleware.NewTokenMiddleware, h.PurgeUser)
}
