package analysisService

import (
	"DermaTrack/internal/api/analysis"
	"DermaTrack/internal/entity"
	contextPkg "DermaTrack/pkg/context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const presignExpiry = 15 * time.Minute

func (s *analysisService) GetRecord(ctx context.Context, userID string, imageID string) (entity.SkinKPI, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.analysisRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.SkinKPI{}, err
	}

	kpi, err := repo.KPI.GetKPI(ctx, userID, imageID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_id":   imageID,
			"error":      err.Error(),
		}).Error("Failed to get KPI record")
		return entity.SkinKPI{}, err
	}

	return kpi, nil
}

func (s *analysisService) GetRecordsByUserID(ctx context.Context, userID string) ([]entity.SkinKPI, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.analysisRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	kpis, err := repo.KPI.GetKPIsByUserID(ctx, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get KPI records")
		return nil, err
	}

	return kpis, nil
}

// PurgeUser removes every KPI row for the user, then the artifacts
// behind them. Row-first ordering keeps the atomicity invariant: a
// queryable record never points at deleted artifacts.
func (s *analysisService) PurgeUser(ctx context.Context, userID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.analysisRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	deleted, err := repo.KPI.DeleteKPIsByUserID(ctx, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("Failed to delete KPI rows")
		return analysis.ErrPurgeFailed
	}

	prefix := fmt.Sprintf("%s%s/", analysis.KeyPrefix, userID)
	objects, err := s.s3.ListKeys(ctx, prefix)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"prefix":     prefix,
			"error":      err.Error(),
		}).Error("Failed to list artifacts for purge, reconciler will sweep them")
		return nil
	}

	for _, obj := range objects {
		if err := s.s3.DeleteObject(ctx, obj.Key); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"key":        obj.Key,
				"error":      err.Error(),
			}).Error("Failed to delete artifact during purge")
		}
	}

	if err := s.redis.BumpInsightVersion(ctx, userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
		}).Warn("Failed to invalidate cached insights after purge")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
		"rows":       deleted,
		"artifacts":  len(objects),
	}).Info("User analysis data purged")

	return nil
}

// PresignArtifacts turns the stored object keys into short-lived URLs
// for the API response.
func (s *analysisService) PresignArtifacts(kpi entity.SkinKPI) (string, string, string, error) {
	face, err := s.s3.PresignKey(kpi.FaceImagePath, presignExpiry)
	if err != nil {
		return "", "", "", err
	}

	blemishes, err := s.s3.PresignKey(kpi.BlemishImagePath, presignExpiry)
	if err != nil {
		return "", "", "", err
	}

	overlay, err := s.s3.PresignKey(kpi.OverlayImagePath, presignExpiry)
	if err != nil {
		return "", "", "", err
	}

	return face, blemishes, overlay, nil
}
