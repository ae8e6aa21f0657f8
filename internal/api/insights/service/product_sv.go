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

const maxProducts = 10

const productWindow = 7 * 24 * time.Hour

const (
	CategoryWorking   = "working"
	CategoryWorsening = "worsening"
	CategoryNeutral   = "neutral"
)

func (s *insightsService) ProductEffectiveness(ctx context.Context, userID string, minEvents int) (insights.ProductEffectivenessResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if minEvents < 1 {
		return insights.ProductEffectivenessResponse{}, insights.ErrInvalidInput
	}

	key := s.cacheKey(ctx, "products", userID, fmt.Sprintf("e%d", minEvents))
	var cached insights.ProductEffectivenessResponse
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}

	repo, err := s.insightsRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return insights.ProductEffectivenessResponse{}, err
	}

	products, err := repo.Insight.GetProductLogs(ctx, userID)
	if err != nil {
		return insights.ProductEffectivenessResponse{}, err
	}

	symptoms, err := repo.Insight.GetSymptomLogs(ctx, userID)
	if err != nil {
		return insights.ProductEffectivenessResponse{}, err
	}

	response := insights.ProductEffectivenessResponse{
		MinEvents: minEvents,
		Products:  rateProducts(products, symptoms, minEvents),
	}
	s.putCached(ctx, key, response)

	return response, nil
}

// rateProducts compares symptom severity in the week before each product
// use against the week after. A usage contributes a delta only when both
// sides of the window hold at least one symptom.
func rateProducts(products []entity.ProductLog, symptoms []entity.SymptomLog, minEvents int) []insights.ProductEffectiveness {
	usagesByName := make(map[string][]time.Time)
	for _, p := range products {
		usagesByName[p.ProductName] = append(usagesByName[p.ProductName], p.LoggedAt)
	}

	rated := make([]insights.ProductEffectiveness, 0)
	for name, usages := range usagesByName {
		if len(usages) < minEvents {
			continue
		}

		var deltaSum float64
		sampled := 0
		for _, t := range usages {
			before, beforeN := severityMean(symptoms, t.Add(-productWindow), t, false)
			after, afterN := severityMean(symptoms, t, t.Add(productWindow), true)
			if beforeN == 0 || afterN == 0 {
				continue
			}
			deltaSum += before - after
			sampled++
		}

		if sampled == 0 {
			continue
		}

		avgImprovement := deltaSum / float64(sampled)

		category := CategoryNeutral
		switch {
		case avgImprovement > 0.5:
			category = CategoryWorking
		case avgImprovement < -0.5:
			category = CategoryWorsening
		}

		rated = append(rated, insights.ProductEffectiveness{
			ProductName:    name,
			UsageCount:     len(usages),
			SampledUsages:  sampled,
			AvgImprovement: round2(avgImprovement),
			Category:       category,
		})
	}

	sort.Slice(rated, func(i, j int) bool {
		if rated[i].AvgImprovement != rated[j].AvgImprovement {
			return rated[i].AvgImprovement > rated[j].AvgImprovement
		}
		return rated[i].ProductName < rated[j].ProductName
	})

	if len(rated) > maxProducts {
		rated = rated[:maxProducts]
	}

	return rated
}

// severityMean averages symptom severity over (from, to) or, when
// inclusiveTo is set, (from, to].
func severityMean(symptoms []entity.SymptomLog, from time.Time, to time.Time, inclusiveTo bool) (float64, int) {
	var sum float64
	n := 0
	for _, s := range symptoms {
		if !s.LoggedAt.After(from) {
			continue
		}
		if inclusiveTo {
			if s.LoggedAt.After(to) {
				continue
			}
		} else if !s.LoggedAt.Before(to) {
			continue
		}
		sum += s.Severity
		n++
	}

	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
