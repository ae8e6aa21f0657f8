package insightsService

import (
	"DermaTrack/internal/api/insights"
	"DermaTrack/internal/entity"
	"context"
	"errors"
	"testing"
	"time"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", value, err)
	}
	return parsed
}

func TestBuildProgressSummary(t *testing.T) {
	t0 := mustParse(t, "2026-01-01T09:00:00Z")

	tests := []struct {
		name         string
		kpis         []entity.SkinKPI
		wantMessage  string
		wantChange   float64
		wantImproved bool
		wantAverage  float64
	}{
		{
			name:        "no records",
			kpis:        nil,
			wantMessage: notEnoughPhotosMessage,
		},
		{
			name: "one record",
			kpis: []entity.SkinKPI{
				{Timestamp: t0, PercentBlemished: 10.0},
			},
			wantMessage: notEnoughPhotosMessage,
		},
		{
			name: "two records twenty days apart",
			kpis: []entity.SkinKPI{
				{Timestamp: t0, PercentBlemished: 10.0, FaceAreaPx: 90000},
				{Timestamp: t0.AddDate(0, 0, 20), PercentBlemished: 5.0, FaceAreaPx: 89000},
			},
			wantChange:   -5.0,
			wantImproved: true,
			wantAverage:  7.5,
		},
		{
			name: "worsening",
			kpis: []entity.SkinKPI{
				{Timestamp: t0, PercentBlemished: 2.0},
				{Timestamp: t0.AddDate(0, 0, 1), PercentBlemished: 4.0},
			},
			wantChange:   2.0,
			wantImproved: false,
			wantAverage:  3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := buildProgressSummary(tt.kpis)

			if tt.wantMessage != "" {
				if summary.Message != tt.wantMessage {
					t.Errorf("message = %q, want %q", summary.Message, tt.wantMessage)
				}
				if summary.BlemishImprovement != nil {
					t.Error("expected no blemish block on sentinel response")
				}
				return
			}

			if summary.BlemishImprovement == nil {
				t.Fatal("expected blemish block")
			}
			if summary.BlemishImprovement.Change != tt.wantChange {
				t.Errorf("change = %v, want %v", summary.BlemishImprovement.Change, tt.wantChange)
			}
			if summary.BlemishImprovement.Improved != tt.wantImproved {
				t.Errorf("improved = %v, want %v", summary.BlemishImprovement.Improved, tt.wantImproved)
			}
			if summary.AverageBlemishPercent != tt.wantAverage {
				t.Errorf("average = %v, want %v", summary.AverageBlemishPercent, tt.wantAverage)
			}
			if summary.TotalPhotos != len(tt.kpis) {
				t.Errorf("total photos = %d, want %d", summary.TotalPhotos, len(tt.kpis))
			}
			if summary.Message == "" {
				t.Error("expected a progress message on the full summary")
			}
		})
	}
}

func TestBuildProgressSummaryFaceArea(t *testing.T) {
	t0 := mustParse(t, "2026-01-01T09:00:00Z")
	summary := buildProgressSummary([]entity.SkinKPI{
		{Timestamp: t0, PercentBlemished: 1.0, FaceAreaPx: 90000},
		{Timestamp: t0.AddDate(0, 0, 3), PercentBlemished: 1.0, FaceAreaPx: 88000},
	})

	if summary.FaceArea == nil {
		t.Fatal("expected face area block")
	}
	if summary.FaceArea.ChangePx != -2000 {
		t.Errorf("face area change = %d, want -2000", summary.FaceArea.ChangePx)
	}
}

func TestBuildWeeklyTrends(t *testing.T) {
	// Mon 2026-01-05 and Wed 2026-01-07 share a bucket; Mon 2026-01-12
	// starts the next one.
	kpis := []entity.SkinKPI{
		{Timestamp: mustParse(t, "2026-01-05T10:00:00Z"), PercentBlemished: 4.0},
		{Timestamp: mustParse(t, "2026-01-07T08:00:00Z"), PercentBlemished: 6.0},
		{Timestamp: mustParse(t, "2026-01-12T09:00:00Z"), PercentBlemished: 2.0},
	}

	trends := buildWeeklyTrends(kpis)

	if len(trends) != 2 {
		t.Fatalf("got %d buckets, want 2", len(trends))
	}
	if trends[0].WeekStart != "2026-01-05" || trends[1].WeekStart != "2026-01-12" {
		t.Errorf("week starts = %q, %q", trends[0].WeekStart, trends[1].WeekStart)
	}
	if trends[0].PhotoCount != 2 || trends[1].PhotoCount != 1 {
		t.Errorf("counts = %d, %d, want 2, 1", trends[0].PhotoCount, trends[1].PhotoCount)
	}
	if trends[0].AvgBlemishPercent != 5.0 {
		t.Errorf("first bucket mean = %v, want 5.0", trends[0].AvgBlemishPercent)
	}
	if trends[0].MinBlemishPercent != 4.0 || trends[0].MaxBlemishPercent != 6.0 {
		t.Errorf("first bucket min/max = %v/%v, want 4.0/6.0",
			trends[0].MinBlemishPercent, trends[0].MaxBlemishPercent)
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-01-05T00:00:00Z", "2026-01-05"},
		{"2026-01-11T23:59:59Z", "2026-01-05"},
		{"2026-01-12T00:00:00Z", "2026-01-12"},
		{"2026-01-04T12:00:00Z", "2025-12-29"},
	}

	for _, tt := range tests {
		got := weekStart(mustParse(t, tt.in)).Format("2006-01-02")
		if got != tt.want {
			t.Errorf("weekStart(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCorrelateTriggers(t *testing.T) {
	t0 := mustParse(t, "2026-02-01T08:00:00Z")

	triggers := []entity.TriggerLog{
		{TriggerName: "dairy", LoggedAt: t0},
		{TriggerName: "dairy", LoggedAt: t0.AddDate(0, 0, 5)},
	}
	symptoms := []entity.SymptomLog{
		{SymptomName: "acne", LoggedAt: t0.Add(2 * time.Hour)},
		{SymptomName: "acne", LoggedAt: t0.AddDate(0, 0, 5).Add(30 * time.Hour)},
	}

	correlations := correlateTriggers(triggers, symptoms, 24, 1)

	if len(correlations) != 1 {
		t.Fatalf("got %d correlations, want 1", len(correlations))
	}

	c := correlations[0]
	if c.PairCount != 1 {
		t.Errorf("pair count = %d, want 1", c.PairCount)
	}
	if c.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", c.Confidence)
	}
	// baseline = 2 symptoms / 4 events, lift = 0.5 / 0.5 = 1.
	if c.Baseline != 0.5 {
		t.Errorf("baseline = %v, want 0.5", c.Baseline)
	}
	if c.Lift != 1.0 {
		t.Errorf("lift = %v, want 1.0", c.Lift)
	}
	if c.Likely {
		t.Error("lift 1.0 must not be marked likely")
	}
}

func TestCorrelateTriggersMinPairs(t *testing.T) {
	t0 := mustParse(t, "2026-02-01T08:00:00Z")

	triggers := []entity.TriggerLog{
		{TriggerName: "dairy", LoggedAt: t0},
	}
	symptoms := []entity.SymptomLog{
		{SymptomName: "acne", LoggedAt: t0.Add(time.Hour)},
	}

	if got := correlateTriggers(triggers, symptoms, 24, 2); len(got) != 0 {
		t.Errorf("got %d correlations, want 0 below min_pairs", len(got))
	}
}

func TestCorrelateTriggersOneSymptomPerTrigger(t *testing.T) {
	t0 := mustParse(t, "2026-02-01T08:00:00Z")

	// Two symptoms inside the same window still count as one pair.
	triggers := []entity.TriggerLog{
		{TriggerName: "stress", LoggedAt: t0},
	}
	symptoms := []entity.SymptomLog{
		{SymptomName: "redness", LoggedAt: t0.Add(time.Hour)},
		{SymptomName: "redness", LoggedAt: t0.Add(2 * time.Hour)},
	}

	correlations := correlateTriggers(triggers, symptoms, 24, 1)
	if len(correlations) != 1 {
		t.Fatalf("got %d correlations, want 1", len(correlations))
	}
	if correlations[0].PairCount != 1 {
		t.Errorf("pair count = %d, want 1", correlations[0].PairCount)
	}
}

func TestRateProducts(t *testing.T) {
	t0 := mustParse(t, "2026-03-01T12:00:00Z")

	products := []entity.ProductLog{
		{ProductName: "cleanser", LoggedAt: t0},
		{ProductName: "cleanser", LoggedAt: t0.AddDate(0, 0, 10)},
	}
	symptoms := []entity.SymptomLog{
		{SymptomName: "acne", Severity: 4, LoggedAt: t0.AddDate(0, 0, -2)},
		{SymptomName: "acne", Severity: 2, LoggedAt: t0.AddDate(0, 0, 2)},
		{SymptomName: "acne", Severity: 3, LoggedAt: t0.AddDate(0, 0, 8)},
		{SymptomName: "acne", Severity: 2, LoggedAt: t0.AddDate(0, 0, 12)},
	}

	rated := rateProducts(products, symptoms, 2)

	if len(rated) != 1 {
		t.Fatalf("got %d products, want 1", len(rated))
	}

	p := rated[0]
	// First use: before mean 4, after mean 2, delta 2. Second use: before
	// mean 3, after mean 2, delta 1. Average 1.5.
	if p.SampledUsages != 2 {
		t.Errorf("sampled usages = %d, want 2", p.SampledUsages)
	}
	if p.AvgImprovement != 1.5 {
		t.Errorf("avg improvement = %v, want 1.5", p.AvgImprovement)
	}
	if p.Category != CategoryWorking {
		t.Errorf("category = %q, want %q", p.Category, CategoryWorking)
	}
}

func TestRateProductsMinEvents(t *testing.T) {
	t0 := mustParse(t, "2026-03-01T12:00:00Z")

	products := []entity.ProductLog{
		{ProductName: "serum", LoggedAt: t0},
	}
	symptoms := []entity.SymptomLog{
		{Severity: 4, LoggedAt: t0.AddDate(0, 0, -1)},
		{Severity: 2, LoggedAt: t0.AddDate(0, 0, 1)},
	}

	if got := rateProducts(products, symptoms, 2); len(got) != 0 {
		t.Errorf("got %d products, want 0 below min_events", len(got))
	}
}

func TestRateProductsMissingWindow(t *testing.T) {
	t0 := mustParse(t, "2026-03-01T12:00:00Z")

	// No symptoms after either use: nothing to compare against.
	products := []entity.ProductLog{
		{ProductName: "toner", LoggedAt: t0},
		{ProductName: "toner", LoggedAt: t0.AddDate(0, 0, 20)},
	}
	symptoms := []entity.SymptomLog{
		{Severity: 4, LoggedAt: t0.AddDate(0, 0, -1)},
	}

	if got := rateProducts(products, symptoms, 2); len(got) != 0 {
		t.Errorf("got %d products, want 0 without paired windows", len(got))
	}
}

func TestInsightParameterValidation(t *testing.T) {
	// Parameter validation runs before any cache or repository access,
	// so a bare service value is enough.
	s := &insightsService{}
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"progress days zero", func() error {
			_, err := s.ProgressSummary(ctx, "u1", 0)
			return err
		}},
		{"progress days negative", func() error {
			_, err := s.ProgressSummary(ctx, "u1", -7)
			return err
		}},
		{"weekly weeks zero", func() error {
			_, err := s.WeeklyTrends(ctx, "u1", 0)
			return err
		}},
		{"triggers window zero", func() error {
			_, err := s.TriggerCorrelation(ctx, "u1", 0, 2)
			return err
		}},
		{"triggers min pairs zero", func() error {
			_, err := s.TriggerCorrelation(ctx, "u1", 24, 0)
			return err
		}},
		{"products min events zero", func() error {
			_, err := s.ProductEffectiveness(ctx, "u1", 0)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, insights.ErrInvalidInput) {
				t.Errorf("error = %v, want %v", err, insights.ErrInvalidInput)
			}
		})
	}
}
