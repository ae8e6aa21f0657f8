package insightsService

import (
	"DermaTrack/internal/api/insights"
	"DermaTrack/internal/entity"
	contextPkg "DermaTrack/pkg/context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const notEnoughPhotosMessage = "Need at least 2 photos to show progress"

func (s *insightsService) ProgressSummary(ctx context.Context, userID string, days int) (insights.ProgressSummaryResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if days < 1 {
		return insights.ProgressSummaryResponse{}, insights.ErrInvalidInput
	}

	key := s.cacheKey(ctx, "progress", userID, fmt.Sprintf("d%d", days))
	var cached insights.ProgressSummaryResponse
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}

	kpis, err := s.kpisInWindow(ctx, userID, days)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to load KPI window for progress summary")
		return insights.ProgressSummaryResponse{}, err
	}

	summary := buildProgressSummary(kpis)
	s.putCached(ctx, key, summary)

	return summary, nil
}

func (s *insightsService) kpisInWindow(ctx context.Context, userID string, days int) ([]entity.SkinKPI, error) {
	repo, err := s.insightsRepository.NewClient(false)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	kpis, err := repo.Insight.GetKPIsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	// The query orders by timestamp already; sorting again keeps the
	// analytics correct even if the backing store changes.
	sort.SliceStable(kpis, func(i, j int) bool {
		return kpis[i].Timestamp.Before(kpis[j].Timestamp)
	})

	return kpis, nil
}

func buildProgressSummary(kpis []entity.SkinKPI) insights.ProgressSummaryResponse {
	if len(kpis) < 2 {
		return insights.ProgressSummaryResponse{
			Message:     notEnoughPhotosMessage,
			TotalPhotos: len(kpis),
		}
	}

	earliest := kpis[0]
	latest := kpis[len(kpis)-1]

	var sum float64
	for _, kpi := range kpis {
		sum += kpi.PercentBlemished
	}
	mean := sum / float64(len(kpis))

	change := latest.PercentBlemished - earliest.PercentBlemished

	summary := insights.ProgressSummaryResponse{
		TotalPhotos: len(kpis),
		DateRange: &insights.DateRange{
			Start: earliest.Timestamp.UTC().Format(time.RFC3339),
			End:   latest.Timestamp.UTC().Format(time.RFC3339),
		},
		BlemishImprovement: &insights.BlemishImprovement{
			CurrentPercent: round2(latest.PercentBlemished),
			InitialPercent: round2(earliest.PercentBlemished),
			Change:         round2(change),
			Improved:       change < 0,
		},
		FaceArea: &insights.FaceAreaChange{
			CurrentPx: latest.FaceAreaPx,
			InitialPx: earliest.FaceAreaPx,
			ChangePx:  latest.FaceAreaPx - earliest.FaceAreaPx,
		},
		AverageBlemishPercent: round2(mean),
	}
	summary.Message = formatProgressMessage(summary)

	return summary
}

func formatProgressMessage(summary insights.ProgressSummaryResponse) string {
	blemish := summary.BlemishImprovement

	direction := "increase"
	changeText := fmt.Sprintf("increased by %.1f%%", blemish.Change)
	if blemish.Improved {
		direction = "improvement"
		changeText = fmt.Sprintf("decreased by %.1f%%", math.Abs(blemish.Change))
	}

	return fmt.Sprintf(
		"Skin progress report: %d photos analyzed from %s to %s. Blemish coverage %s (current %.1f%%, initial %.1f%%, average %.1f%%). Overall %s in skin condition detected.",
		summary.TotalPhotos,
		summary.DateRange.Start[:10],
		summary.DateRange.End[:10],
		changeText,
		blemish.CurrentPercent,
		blemish.InitialPercent,
		summary.AverageBlemishPercent,
		direction,
	)
}
