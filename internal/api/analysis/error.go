package analysis

import "DermaTrack/pkg/response"

var (
	ErrImageUnreadable     = response.NewError(400, "image could not be decoded")
	ErrInvalidImageFile    = response.NewError(400, "invalid image file")
	ErrInvalidInput        = response.NewError(400, "invalid user id or image id")
	ErrRecordNotFound      = response.NewError(404, "analysis record not found")
	ErrAlignmentFailed     = response.NewError(422, "face alignment failed")
	ErrPersistConflict     = response.NewError(409, "conflicting write for this image")
	ErrInvalidKPIRecord    = response.NewError(500, "analysis produced an invalid KPI record")
	ErrRenderFailed        = response.NewError(500, "failed to render analysis artifacts")
	ErrPurgeFailed         = response.NewError(500, "failed to purge analysis data")
	ErrUploadFailed        = response.NewError(502, "failed to upload analysis artifacts")
	ErrDetectorUnavailable = response.NewError(503, "face detector unavailable")
	ErrTimeout             = response.NewError(504, "analysis step exceeded its time budget")
)
