package insightsService

import (
	"fmt"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const cacheTTL = 5 * time.Minute

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cacheKey embeds the user's insight version so a new persisted analysis
// invalidates every cached payload without explicit deletes.
func (s *insightsService) cacheKey(ctx context.Context, kind string, userID string, params string) string {
	version := s.redis.GetInsightVersion(ctx, userID)
	return fmt.Sprintf("insights:%s:%s:v%d:%s", kind, userID, version, params)
}

func (s *insightsService) getCached(ctx context.Context, key string, dest interface{}) bool {
	payload, err := s.redis.GetCachedInsight(ctx, key)
	if err != nil {
		return false
	}

	if err := json.UnmarshalFromString(payload, dest); err != nil {
		s.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Discarding undecodable cached insight")
		return false
	}

	return true
}

func (s *insightsService) putCached(ctx context.Context, key string, value interface{}) {
	payload, err := json.MarshalToString(value)
	if err != nil {
		return
	}

	if err := s.redis.SetCachedInsight(ctx, key, payload, cacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"key": key,
		}).Warn("Failed to cache insight payload")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
