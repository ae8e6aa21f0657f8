package analysisService

import (
	analysisRepository "DermaTrack/internal/api/analysis/repository"
	"DermaTrack/internal/entity"
	"DermaTrack/internal/vision/align"
	"DermaTrack/internal/vision/detector"
	"DermaTrack/internal/vision/render"
	"DermaTrack/pkg/redis"
	"DermaTrack/pkg/s3"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IAnalysisService interface {
	Analyze(ctx context.Context, imagePath string, userID string, imageID string) (*entity.SkinKPI, error)
	GetRecord(ctx context.Context, userID string, imageID string) (entity.SkinKPI, error)
	GetRecordsByUserID(ctx context.Context, userID string) ([]entity.SkinKPI, error)
	PurgeUser(ctx context.Context, userID string) error
	PresignArtifacts(kpi entity.SkinKPI) (face string, blemishes string, overlay string, err error)
}

type analysisService struct {
	log                *logrus.Logger
	analysisRepository analysisRepository.Repository
	detector           *detector.Detector
	aligner            *align.Aligner
	renderer           *render.Renderer
	s3                 s3.ItfS3
	redis              redis.IRedis
}

func NewAnalysisService(
	log *logrus.Logger,
	ar analysisRepository.Repository,
	det *detector.Detector,
	aligner *align.Aligner,
	renderer *render.Renderer,
	s3Client s3.ItfS3,
	redisServer redis.IRedis,
) IAnalysisService {
	return &analysisService{
		log:                log,
		analysisRepository: ar,
		detector:           det,
		aligner:            aligner,
		renderer:           renderer,
		s3:                 s3Client,
		redis:              redisServer,
	}
}
