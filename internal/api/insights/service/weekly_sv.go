package insightsService

import (
	"DermaTrack/internal/api/insights"
	"DermaTrack/internal/entity"
	contextPkg "DermaTrack/pkg/context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *insightsService) WeeklyTrends(ctx context.Context, userID string, weeks int) (insights.WeeklyTrendsResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if weeks < 1 {
		return insights.WeeklyTrendsResponse{}, insights.ErrInvalidInput
	}

	key := s.cacheKey(ctx, "weekly", userID, fmt.Sprintf("w%d", weeks))
	var cached insights.WeeklyTrendsResponse
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}

	kpis, err := s.kpisInWindow(ctx, userID, weeks*7)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to load KPI window for weekly trends")
		return insights.WeeklyTrendsResponse{}, err
	}

	response := insights.WeeklyTrendsResponse{
		Weeks:  weeks,
		Trends: buildWeeklyTrends(kpis),
	}
	s.putCached(ctx, key, response)

	return response, nil
}

// buildWeeklyTrends buckets records by UTC calendar week starting Monday.
// Weeks with no records are omitted.
func buildWeeklyTrends(kpis []entity.SkinKPI) []insights.WeeklyTrend {
	type bucket struct {
		percents []float64
	}

	buckets := make(map[string]*bucket)
	for _, kpi := range kpis {
		week := weekStart(kpi.Timestamp).Format("2006-01-02")
		b, ok := buckets[week]
		if !ok {
			b = &bucket{}
			buckets[week] = b
		}
		b.percents = append(b.percents, kpi.PercentBlemished)
	}

	trends := make([]insights.WeeklyTrend, 0, len(buckets))
	for week, b := range buckets {
		minP, maxP := b.percents[0], b.percents[0]
		var sum float64
		for _, p := range b.percents {
			sum += p
			if p < minP {
				minP = p
			}
			if p > maxP {
				maxP = p
			}
		}

		trends = append(trends, insights.WeeklyTrend{
			WeekStart:         week,
			PhotoCount:        len(b.percents),
			AvgBlemishPercent: round2(sum / float64(len(b.percents))),
			MinBlemishPercent: round2(minP),
			MaxBlemishPercent: round2(maxP),
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		return trends[i].WeekStart < trends[j].WeekStart
	})

	return trends
}

func weekStart(t time.Time) time.Time {
	t = t.UTC()
	back := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -back)
}
