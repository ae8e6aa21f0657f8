package analysis

import (
	"fmt"
	"strings"
)

// Object-store layout for derivative artifacts. Keys are deterministic
// per (user_id, image_id) so persisting the same image twice overwrites
// in place.
const (
	KeyPrefix = "skin/"

	SuffixFace      = "_face.png"
	SuffixBlemishes = "_blemishes.png"
	SuffixOverlay   = "_overlay.png"
)

// ArtifactKeys returns the three object keys for one record, in
// face/blemishes/overlay order.
func ArtifactKeys(userID, imageID string) [3]string {
	base := fmt.Sprintf("%s%s/%s", KeyPrefix, userID, imageID)
	return [3]string{
		base + SuffixFace,
		base + SuffixBlemishes,
		base + SuffixOverlay,
	}
}

// ParseArtifactKey splits an object key back into its record identity.
// ok is false for keys outside the artifact layout.
func ParseArtifactKey(key string) (userID, imageID, suffix string, ok bool) {
	rest, found := strings.CutPrefix(key, KeyPrefix)
	if !found {
		return "", "", "", false
	}

	userID, rest, found = strings.Cut(rest, "/")
	if !found || userID == "" || strings.Contains(rest, "/") {
		return "", "", "", false
	}

	for _, s := range []string{SuffixFace, SuffixBlemishes, SuffixOverlay} {
		if imageID, found = strings.CutSuffix(rest, s); found && imageID != "" {
			return userID, imageID, s, true
		}
	}

	return "", "", "", false
}
