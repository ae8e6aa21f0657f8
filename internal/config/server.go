package config

import (
	"DermaTrack/database/postgres"
	analysisHandler "DermaTrack/internal/api/analysis/handler"
	analysisRepository "DermaTrack/internal/api/analysis/repository"
	analysisService "DermaTrack/internal/api/analysis/service"
	insightsHandler "DermaTrack/internal/api/insights/handler"
	insightsRepository "DermaTrack/internal/api/insights/repository"
	insightsService "DermaTrack/internal/api/insights/service"
	"DermaTrack/internal/middleware"
	"DermaTrack/internal/vision/align"
	"DermaTrack/internal/vision/detector"
	"DermaTrack/internal/vision/render"
	"DermaTrack/internal/worker"
	"DermaTrack/pkg/redis"
	"DermaTrack/pkg/s3"
	"DermaTrack/pkg/utils"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	s3Client     s3.ItfS3
	faceDetector *detector.Detector
	faceAligner  *align.Aligner
	renderer     *render.Renderer
	reconciler   *worker.Reconciler
	stopWorkers  context.CancelFunc
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithDetector() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before detector")
		}
		det, err := detector.Shared(s.log)
		if err != nil {
			s.log.Errorf("Failed to load face detection backend: %v", err)
			return fmt.Errorf("failed to load face detection backend: %w", err)
		}
		s.faceDetector = det
		return nil
	}
}

func WithAligner() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before aligner")
		}
		version := align.MaskUniform
		if os.Getenv("SKIN_MASK_VERSION") == "2" {
			version = align.MaskConvexHull
		}
		s.faceAligner = align.New(version, s.log)
		return nil
	}
}

func WithRenderer() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before renderer")
		}
		dir := os.Getenv("SKIN_RENDER_DIR")
		if dir == "" {
			dir = os.TempDir()
		}
		s.renderer = render.New(dir, s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Analysis pipeline
	analysisRepo := analysisRepository.New(s.db, s.log)
	analysisServices := analysisService.NewAnalysisService(s.log, analysisRepo, s.faceDetector, s.faceAligner, s.renderer, s.s3Client, s.redisServer)
	analysisHandlers := analysisHandler.New(s.log, s.validator, s.middleware, analysisServices, s.utils)

	// KPI analytics
	insightsRepo := insightsRepository.New(s.db, s.log)
	insightsServices := insightsService.NewInsightsService(s.log, insightsRepo, s.redisServer)
	insightsHandlers := insightsHandler.New(s.log, s.validator, s.middleware, insightsServices)

	s.reconciler = worker.NewReconciler(s.log, analysisRepo, s.s3Client)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, analysisHandlers, insightsHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s.stopWorkers = cancel
	if s.reconciler != nil {
		go s.reconciler.Run(workerCtx)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		cancel()
		return err
	}

	return nil
}

func (s *Server) Shutdown() {
	if s.stopWorkers != nil {
		s.stopWorkers()
	}
	if err := s.engine.Shutdown(); err != nil {
		s.log.Errorf("Error shutting down server: %v", err)
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
