package entity_test

import (
	"DermaTrack/internal/api/analysis"
	"DermaTrack/internal/entity"
	"errors"
	"testing"
	"time"
)

func validKPI() entity.SkinKPI {
	return entity.SkinKPI{
		UserID:           "u1",
		ImageID:          "img1",
		Timestamp:        time.Now().UTC(),
		FaceAreaPx:       90000,
		BlemishAreaPx:    700,
		PercentBlemished: 0.78,
		MaskVersion:      1,
		FaceImagePath:    "skin/u1/img1_face.png",
		BlemishImagePath: "skin/u1/img1_blemishes.png",
		OverlayImagePath: "skin/u1/img1_overlay.png",
	}
}

func TestSkinKPIValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*entity.SkinKPI)
		wantErr error
	}{
		{"valid", func(k *entity.SkinKPI) {}, nil},
		{"zero areas", func(k *entity.SkinKPI) {
			k.FaceAreaPx = 0
			k.BlemishAreaPx = 0
			k.PercentBlemished = 0
		}, nil},
		{"missing user", func(k *entity.SkinKPI) { k.UserID = "" }, analysis.ErrInvalidInput},
		{"missing image", func(k *entity.SkinKPI) { k.ImageID = "" }, analysis.ErrInvalidInput},
		{"negative blemish area", func(k *entity.SkinKPI) { k.BlemishAreaPx = -1 }, analysis.ErrInvalidKPIRecord},
		{"blemish exceeds face", func(k *entity.SkinKPI) { k.BlemishAreaPx = 90001 }, analysis.ErrInvalidKPIRecord},
		{"percent below range", func(k *entity.SkinKPI) { k.PercentBlemished = -0.1 }, analysis.ErrInvalidKPIRecord},
		{"percent above range", func(k *entity.SkinKPI) { k.PercentBlemished = 100.1 }, analysis.ErrInvalidKPIRecord},
		{"missing artifact path", func(k *entity.SkinKPI) { k.OverlayImagePath = "" }, analysis.ErrInvalidKPIRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kpi := validKPI()
			tt.mutate(&kpi)

			err := kpi.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
