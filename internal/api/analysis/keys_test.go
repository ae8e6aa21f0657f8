package analysis_test

import (
	"DermaTrack/internal/api/analysis"
	"testing"
)

func TestArtifactKeys(t *testing.T) {
	keys := analysis.ArtifactKeys("user-1", "01ARZ3NDEKTSV4RRFFQ69G5FAV")

	want := [3]string{
		"skin/user-1/01ARZ3NDEKTSV4RRFFQ69G5FAV_face.png",
		"skin/user-1/01ARZ3NDEKTSV4RRFFQ69G5FAV_blemishes.png",
		"skin/user-1/01ARZ3NDEKTSV4RRFFQ69G5FAV_overlay.png",
	}
	if keys != want {
		t.Errorf("ArtifactKeys = %v, want %v", keys, want)
	}
}

func TestParseArtifactKeyRoundTrip(t *testing.T) {
	for _, key := range analysis.ArtifactKeys("u42", "img7") {
		userID, imageID, _, ok := analysis.ParseArtifactKey(key)
		if !ok {
			t.Fatalf("ParseArtifactKey(%q) not ok", key)
		}
		if userID != "u42" || imageID != "img7" {
			t.Errorf("ParseArtifactKey(%q) = (%q, %q), want (u42, img7)", key, userID, imageID)
		}
	}
}

func TestParseArtifactKeyRejectsForeignKeys(t *testing.T) {
	tests := []string{
		"",
		"skin/",
		"skin/user-only",
		"skin/u1/img_face.jpg",
		"skin/u1/deep/img_face.png",
		"other/u1/img_face.png",
		"skin/u1/_face.png",
	}

	for _, key := range tests {
		if _, _, _, ok := analysis.ParseArtifactKey(key); ok {
			t.Errorf("ParseArtifactKey(%q) = ok, want rejection", key)
		}
	}
}
