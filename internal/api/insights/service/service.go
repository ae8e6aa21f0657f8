package insightsService

import (
	"DermaTrack/internal/api/insights"
	insightsRepository "DermaTrack/internal/api/insights/repository"
	"DermaTrack/pkg/redis"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IInsightsService interface {
	ProgressSummary(ctx context.Context, userID string, days int) (insights.ProgressSummaryResponse, error)
	WeeklyTrends(ctx context.Context, userID string, weeks int) (insights.WeeklyTrendsResponse, error)
	TriggerCorrelation(ctx context.Context, userID string, windowHours int, minPairs int) (insights.TriggerCorrelationResponse, error)
	ProductEffectiveness(ctx context.Context, userID string, minEvents int) (insights.ProductEffectivenessResponse, error)
}

type insightsService struct {
	log                *logrus.Logger
	insightsRepository insightsRepository.Repository
	redis              redis.IRedis
}

func NewInsightsService(
	log *logrus.Logger,
	ir insightsRepository.Repository,
	redisServer redis.IRedis,
) IInsightsService {
	return &insightsService{
		log:                log,
		insightsRepository: ir,
		redis:              redisServer,
	}
}
