package analysisHandler

import (
	"DermaTrack/internal/api/analysis"
	"DermaTrack/internal/entity"
	contextPkg "DermaTrack/pkg/context"
	"DermaTrack/pkg/handlerUtil"
	jwtPkg "DermaTrack/pkg/jwt"
	"DermaTrack/pkg/log"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// analyzeBudget covers the whole pipeline: detection plus three uploads
// plus the row insert, each already bounded by its own step timeout.
const analyzeBudget = 2 * time.Minute

const noFaceMessage = "No face detected in the photo. Try better lighting and a frontal pose."

func (h *AnalysisHandler) AnalyzeImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), analyzeBudget)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing skin analysis request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	photo, err := ctx.FormFile("photo")
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("photo file is required"), ctx.Path())
	}

	if err := h.utils.ValidateImageFile(photo); err != nil {
		return errHandler.Handle(ctx, requestID, analysis.ErrInvalidImageFile, ctx.Path(), "validate_photo")
	}

	imageID, err := h.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "generate_image_id")
	}

	tempName := userData.ID + "_" + imageID + filepath.Ext(photo.Filename)
	imagePath, err := h.utils.SaveMultipartFile(photo, os.TempDir(), tempName)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "save_photo")
	}
	defer os.Remove(imagePath)

	record, err := h.analysisService.Analyze(c, imagePath, userData.ID, imageID)
	if err != nil {
		// A degenerate face box is reported like no face: nothing was
		// written and there is nothing to act on.
		if errors.Is(err, analysis.ErrAlignmentFailed) {
			return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.AnalyzeResponse{
				FaceDetected: false,
				Message:      noFaceMessage,
			})
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "analyze_image")
	}

	if record == nil {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.AnalyzeResponse{
			FaceDetected: false,
			Message:      noFaceMessage,
		})
	}

	response, err := h.makeRecordResponse(*record)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "presign_artifacts")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, analysis.AnalyzeResponse{
			FaceDetected: true,
			Record:       &response,
		})
	}
}

func (h *AnalysisHandler) GetRecord(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	imageID := ctx.Params("image_id")
	if imageID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("image ID is required"), ctx.Path())
	}

	record, err := h.analysisService.GetRecord(c, userData.ID, imageID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_record")
	}

	response, err := h.makeRecordResponse(record)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "presign_artifacts")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func (h *AnalysisHandler) GetRecords(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	records, err := h.analysisService.GetRecordsByUserID(c, userData.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_records")
	}

	responses := make([]analysis.KPIRecordResponse, 0, len(records))
	for _, record := range records {
		response, err := h.makeRecordResponse(record)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "presign_artifacts")
		}
		responses = append(responses, response)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.RecordListResponse{
			Records: responses,
			Total:   len(responses),
		})
	}
}

func (h *AnalysisHandler) PurgeUser(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	if err := h.analysisService.PurgeUser(c, userData.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "purge_user")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Analysis data purged successfully",
		})
	}
}

func (h *AnalysisHandler) makeRecordResponse(record entity.SkinKPI) (analysis.KPIRecordResponse, error) {
	face, blemishes, overlay, err := h.analysisService.PresignArtifacts(record)
	if err != nil {
		return analysis.KPIRecordResponse{}, err
	}

	return analysis.KPIRecordResponse{
		UserID:           record.UserID,
		ImageID:          record.ImageID,
		Timestamp:        record.Timestamp.Format(time.RFC3339),
		FaceAreaPx:       record.FaceAreaPx,
		BlemishAreaPx:    record.BlemishAreaPx,
		PercentBlemished: round2(record.PercentBlemished),
		MaskVersion:      record.MaskVersion,
		FaceImageURL:     face,
		BlemishImageURL:  blemishes,
		OverlayImageURL:  overlay,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
