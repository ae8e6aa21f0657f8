package insights

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type BlemishImprovement struct {
	CurrentPercent float64 `json:"current_percent"`
	InitialPercent float64 `json:"initial_percent"`
	Change         float64 `json:"change"`
	Improved       bool    `json:"improved"`
}

type FaceAreaChange struct {
	CurrentPx int `json:"current_px"`
	InitialPx int `json:"initial_px"`
	ChangePx  int `json:"change_px"`
}

// ProgressSummaryResponse carries either the full summary or, with fewer
// than two photos in the window, just the message.
type ProgressSummaryResponse struct {
	Message               string              `json:"message"`
	TotalPhotos           int                 `json:"total_photos"`
	DateRange             *DateRange          `json:"date_range,omitempty"`
	BlemishImprovement    *BlemishImprovement `json:"blemish_improvement,omitempty"`
	FaceArea              *FaceAreaChange     `json:"face_area,omitempty"`
	AverageBlemishPercent float64             `json:"average_blemish_percent"`
}

type WeeklyTrend struct {
	WeekStart         string  `json:"week_start"`
	PhotoCount        int     `json:"photo_count"`
	AvgBlemishPercent float64 `json:"avg_blemish_percent"`
	MinBlemishPercent float64 `json:"min_blemish_percent"`
	MaxBlemishPercent float64 `json:"max_blemish_percent"`
}

type WeeklyTrendsResponse struct {
	Weeks  int           `json:"weeks"`
	Trends []WeeklyTrend `json:"trends"`
}

type TriggerCorrelation struct {
	TriggerName string  `json:"trigger_name"`
	SymptomName string  `json:"symptom_name"`
	PairCount   int     `json:"pair_count"`
	Confidence  float64 `json:"confidence"`
	Baseline    float64 `json:"baseline"`
	Lift        float64 `json:"lift"`
	Likely      bool    `json:"likely"`
}

type TriggerCorrelationResponse struct {
	WindowHours  int                  `json:"window_hours"`
	MinPairs     int                  `json:"min_pairs"`
	Correlations []TriggerCorrelation `json:"correlations"`
}

type ProductEffectiveness struct {
	ProductName    string  `json:"product_name"`
	UsageCount     int     `json:"usage_count"`
	SampledUsages  int     `json:"sampled_usages"`
	AvgImprovement float64 `json:"avg_improvement"`
	Category       string  `json:"category"`
}

type ProductEffectivenessResponse struct {
	MinEvents int                    `json:"min_events"`
	Products  []ProductEffectiveness `json:"products"`
}
