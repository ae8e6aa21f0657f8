package entity

import (
	"DermaTrack/internal/api/analysis"
	"time"
)

// SkinKPI is the longitudinal unit produced by one successful image
// analysis. Keyed by (UserID, ImageID); re-analysis of the same pair
// overwrites the row, it never duplicates it.
type SkinKPI struct {
	UserID           string    `json:"user_id"`
	ImageID          string    `json:"image_id"`
	Timestamp        time.Time `json:"timestamp"`
	FaceAreaPx       int       `json:"face_area_px"`
	BlemishAreaPx    int       `json:"blemish_area_px"`
	PercentBlemished float64   `json:"percent_blemished"`
	MaskVersion      int       `json:"mask_version"`
	FaceImagePath    string    `json:"face_image_path"`
	BlemishImagePath string    `json:"blemish_image_path"`
	OverlayImagePath string    `json:"overlay_image_path"`
}

func (k *SkinKPI) Validate() error {
	if k.UserID == "" || k.ImageID == "" {
		return analysis.ErrInvalidInput
	}

	if k.BlemishAreaPx < 0 || k.BlemishAreaPx > k.FaceAreaPx {
		return analysis.ErrInvalidKPIRecord
	}

	if k.PercentBlemished < 0 || k.PercentBlemished > 100 {
		return analysis.ErrInvalidKPIRecord
	}

	if k.FaceImagePath == "" || k.BlemishImagePath == "" || k.OverlayImagePath == "" {
		return analysis.ErrInvalidKPIRecord
	}

	return nil
}
