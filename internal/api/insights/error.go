package insights

import "DermaTrack/pkg/response"

var (
	ErrInvalidInput = response.NewError(400, "invalid insight parameters")
)
