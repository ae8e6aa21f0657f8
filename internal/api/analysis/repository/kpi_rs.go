package analysisRepository

import (
	"DermaTrack/internal/api/analysis"
	"DermaTrack/internal/entity"
	contextPkg "DermaTrack/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type SkinKPIDB struct {
	UserID           sql.NullString  `db:"user_id"`
	ImageID          sql.NullString  `db:"image_id"`
	Timestamp        time.Time       `db:"timestamp"`
	FaceAreaPx       sql.NullInt64   `db:"face_area_px"`
	BlemishAreaPx    sql.NullInt64   `db:"blemish_area_px"`
	PercentBlemished sql.NullFloat64 `db:"percent_blemished"`
	MaskVersion      sql.NullInt64   `db:"mask_version"`
	FaceImagePath    sql.NullString  `db:"face_image_path"`
	BlemishImagePath sql.NullString  `db:"blemish_image_path"`
	OverlayImagePath sql.NullString  `db:"overlay_image_path"`
}

func (r *kpiRepository) UpsertKPI(ctx context.Context, kpi entity.SkinKPI) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"user_id":            kpi.UserID,
		"image_id":           kpi.ImageID,
		"timestamp":          kpi.Timestamp,
		"face_area_px":       kpi.FaceAreaPx,
		"blemish_area_px":    kpi.BlemishAreaPx,
		"percent_blemished":  kpi.PercentBlemished,
		"mask_version":       kpi.MaskVersion,
		"face_image_path":    kpi.FaceImagePath,
		"blemish_image_path": kpi.BlemishImagePath,
		"overlay_image_path": kpi.OverlayImagePath,
	}

	query, args, err := sqlx.Named(queryUpsertKPI, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpsertKPI named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(ctx, query, args...)
	if err != nil {
		// The upsert resolves same-key rewrites, but two inserts racing
		// the conflict arbiter can still surface a unique violation.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"image_id":   kpi.ImageID,
			}).Warn("Conflicting concurrent write for skin KPI")
			return analysis.ErrPersistConflict
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when upserting skin KPI")
		return err
	}

	return nil
}

func (r *kpiRepository) GetKPI(ctx context.Context, userID string, imageID string) (entity.SkinKPI, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var kpi SkinKPIDB

	argsKV := map[string]interface{}{
		"user_id":  userID,
		"image_id": imageID,
	}

	query, args, err := sqlx.Named(queryGetKPI, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetKPI named query preparation err")
		return entity.SkinKPI{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&kpi); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"image_id":   imageID,
			}).Warn("GetKPI no rows found")
			return entity.SkinKPI{}, analysis.ErrRecordNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetKPI execution err")
		return entity.SkinKPI{}, err
	}

	return r.makeSkinKPI(kpi), nil
}

func (r *kpiRepository) GetKPIsByUserID(ctx context.Context, userID string) ([]entity.SkinKPI, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var kpis []SkinKPIDB

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetKPIsByUser, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetKPIsByUserID named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &kpis, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetKPIsByUserID execution err")
		return nil, err
	}

	result := make([]entity.SkinKPI, 0, len(kpis))
	for _, kpi := range kpis {
		result = append(result, r.makeSkinKPI(kpi))
	}

	return result, nil
}

func (r *kpiRepository) KPIExists(ctx context.Context, userID string, imageID string) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"user_id":  userID,
		"image_id": imageID,
	}

	query, args, err := sqlx.Named(queryKPIExists, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("KPIExists named query preparation err")
		return false, err
	}

	query = r.q.Rebind(query)

	var present bool
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&present); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("KPIExists execution err")
		return false, err
	}

	return present, nil
}

func (r *kpiRepository) DeleteKPIsByUserID(ctx context.Context, userID string) (int64, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryDeleteKPIsByUser, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteKPIsByUserID named query preparation err")
		return 0, err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteKPIsByUserID execution err")
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteKPIsByUserID rows affected err")
		return 0, err
	}

	return rowsAffected, nil
}

func (r *kpiRepository) makeSkinKPI(kpi SkinKPIDB) entity.SkinKPI {
	return entity.SkinKPI{
		UserID:           kpi.UserID.String,
		ImageID:          kpi.ImageID.String,
		Timestamp:        kpi.Timestamp,
		FaceAreaPx:       int(kpi.FaceAreaPx.Int64),
		BlemishAreaPx:    int(kpi.BlemishAreaPx.Int64),
		PercentBlemished: kpi.PercentBlemished.Float64,
		MaskVersion:      int(kpi.MaskVersion.Int64),
		FaceImagePath:    kpi.FaceImagePath.String,
		BlemishImagePath: kpi.BlemishImagePath.String,
		OverlayImagePath: kpi.OverlayImagePath.String,
	}
}
