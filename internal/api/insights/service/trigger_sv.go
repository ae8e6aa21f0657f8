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

const maxCorrelations = 10

const (
	likelyConfidenceFloor = 0.3
	likelyLiftFloor       = 1.2
)

func (s *insightsService) TriggerCorrelation(ctx context.Context, userID string, windowHours int, minPairs int) (insights.TriggerCorrelationResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if windowHours < 1 || minPairs < 1 {
		return insights.TriggerCorrelationResponse{}, insights.ErrInvalidInput
	}

	key := s.cacheKey(ctx, "triggers", userID, fmt.Sprintf("h%d:p%d", windowHours, minPairs))
	var cached insights.TriggerCorrelationResponse
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}

	repo, err := s.insightsRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return insights.TriggerCorrelationResponse{}, err
	}

	triggers, err := repo.Insight.GetTriggerLogs(ctx, userID)
	if err != nil {
		return insights.TriggerCorrelationResponse{}, err
	}

	symptoms, err := repo.Insight.GetSymptomLogs(ctx, userID)
	if err != nil {
		return insights.TriggerCorrelationResponse{}, err
	}

	response := insights.TriggerCorrelationResponse{
		WindowHours:  windowHours,
		MinPairs:     minPairs,
		Correlations: correlateTriggers(triggers, symptoms, windowHours, minPairs),
	}
	s.putCached(ctx, key, response)

	return response, nil
}

// correlateTriggers pairs each trigger instance with the earliest
// following symptom instance inside the window, at most one symptom per
// trigger, then scores each (trigger, symptom) name pair by lift.
func correlateTriggers(triggers []entity.TriggerLog, symptoms []entity.SymptomLog, windowHours int, minPairs int) []insights.TriggerCorrelation {
	triggersByName := make(map[string][]time.Time)
	for _, t := range triggers {
		triggersByName[t.TriggerName] = append(triggersByName[t.TriggerName], t.LoggedAt)
	}

	symptomsByName := make(map[string][]time.Time)
	for _, s := range symptoms {
		symptomsByName[s.SymptomName] = append(symptomsByName[s.SymptomName], s.LoggedAt)
	}

	for _, times := range triggersByName {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}
	for _, times := range symptomsByName {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}

	window := time.Duration(windowHours) * time.Hour
	totalEvents := len(triggers) + len(symptoms)

	correlations := make([]insights.TriggerCorrelation, 0)
	for triggerName, triggerTimes := range triggersByName {
		for symptomName, symptomTimes := range symptomsByName {
			pairCount := 0
			for _, t := range triggerTimes {
				if hasSymptomWithin(symptomTimes, t, window) {
					pairCount++
				}
			}

			if pairCount < minPairs {
				continue
			}

			confidence := float64(pairCount) / float64(len(triggerTimes))
			baseline := float64(len(symptomTimes)) / float64(totalEvents)

			lift := 0.0
			if baseline > 0 {
				lift = confidence / baseline
			}

			correlations = append(correlations, insights.TriggerCorrelation{
				TriggerName: triggerName,
				SymptomName: symptomName,
				PairCount:   pairCount,
				Confidence:  round3(confidence),
				Baseline:    round3(baseline),
				Lift:        round3(lift),
				Likely:      confidence > likelyConfidenceFloor && lift > likelyLiftFloor,
			})
		}
	}

	sort.Slice(correlations, func(i, j int) bool {
		if correlations[i].Lift != correlations[j].Lift {
			return correlations[i].Lift > correlations[j].Lift
		}
		if correlations[i].TriggerName != correlations[j].TriggerName {
			return correlations[i].TriggerName < correlations[j].TriggerName
		}
		return correlations[i].SymptomName < correlations[j].SymptomName
	})

	if len(correlations) > maxCorrelations {
		correlations = correlations[:maxCorrelations]
	}

	return correlations
}

// hasSymptomWithin reports whether any symptom instant falls in
// (t, t+window]. The slice is sorted ascending.
func hasSymptomWithin(symptomTimes []time.Time, t time.Time, window time.Duration) bool {
	idx := sort.Search(len(symptomTimes), func(i int) bool {
		return symptomTimes[i].After(t)
	})
	return idx < len(symptomTimes) && !symptomTimes[idx].After(t.Add(window))
}
