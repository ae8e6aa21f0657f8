package insightsRepository

import (
	"DermaTrack/internal/entity"
	contextPkg "DermaTrack/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type kpiRowDB struct {
	Timestamp        time.Time       `db:"timestamp"`
	FaceAreaPx       sql.NullInt64   `db:"face_area_px"`
	BlemishAreaPx    sql.NullInt64   `db:"blemish_area_px"`
	PercentBlemished sql.NullFloat64 `db:"percent_blemished"`
}

type triggerLogDB struct {
	ID          sql.NullString `db:"id"`
	TriggerName sql.NullString `db:"trigger_name"`
	LoggedAt    sql.NullString `db:"logged_at"`
}

type symptomLogDB struct {
	ID          sql.NullString  `db:"id"`
	SymptomName sql.NullString  `db:"symptom_name"`
	Severity    sql.NullFloat64 `db:"severity"`
	LoggedAt    sql.NullString  `db:"logged_at"`
}

type productLogDB struct {
	ID          sql.NullString `db:"id"`
	ProductName sql.NullString `db:"product_name"`
	LoggedAt    sql.NullString `db:"logged_at"`
}

// Timestamp layouts seen from the log collaborators. The aware forms are
// tried first; the naive forms are interpreted as UTC.
var awareLayouts = []string{
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	time.RFC3339,
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (r *insightRepository) GetKPIsSince(ctx context.Context, userID string, since time.Time) ([]entity.SkinKPI, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var rows []kpiRowDB

	argsKV := map[string]interface{}{
		"user_id": userID,
		"since":   since,
	}

	query, args, err := sqlx.Named(queryGetKPIsSince, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetKPIsSince named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetKPIsSince execution err")
		return nil, err
	}

	result := make([]entity.SkinKPI, 0, len(rows))
	for _, row := range rows {
		result = append(result, entity.SkinKPI{
			UserID:           userID,
			Timestamp:        row.Timestamp.UTC(),
			FaceAreaPx:       int(row.FaceAreaPx.Int64),
			BlemishAreaPx:    int(row.BlemishAreaPx.Int64),
			PercentBlemished: row.PercentBlemished.Float64,
		})
	}

	return result, nil
}

func (r *insightRepository) GetTriggerLogs(ctx context.Context, userID string) ([]entity.TriggerLog, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var rows []triggerLogDB

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetTriggerLogs, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTriggerLogs named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTriggerLogs execution err")
		return nil, err
	}

	result := make([]entity.TriggerLog, 0, len(rows))
	for _, row := range rows {
		loggedAt, ok := r.parseLoggedAt(row.LoggedAt.String)
		if !ok {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"log_id":     row.ID.String,
				"logged_at":  row.LoggedAt.String,
			}).Warn("Skipping trigger log with unparseable timestamp")
			continue
		}
		result = append(result, entity.TriggerLog{
			ID:          row.ID.String,
			UserID:      userID,
			TriggerName: row.TriggerName.String,
			LoggedAt:    loggedAt,
		})
	}

	return result, nil
}

func (r *insightRepository) GetSymptomLogs(ctx context.Context, userID string) ([]entity.SymptomLog, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var rows []symptomLogDB

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetSymptomLogs, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSymptomLogs named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSymptomLogs execution err")
		return nil, err
	}

	result := make([]entity.SymptomLog, 0, len(rows))
	for _, row := range rows {
		loggedAt, ok := r.parseLoggedAt(row.LoggedAt.String)
		if !ok {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"log_id":     row.ID.String,
				"logged_at":  row.LoggedAt.String,
			}).Warn("Skipping symptom log with unparseable timestamp")
			continue
		}
		result = append(result, entity.SymptomLog{
			ID:          row.ID.String,
			UserID:      userID,
			SymptomName: row.SymptomName.String,
			Severity:    row.Severity.Float64,
			LoggedAt:    loggedAt,
		})
	}

	return result, nil
}

func (r *insightRepository) GetProductLogs(ctx context.Context, userID string) ([]entity.ProductLog, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var rows []productLogDB

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetProductLogs, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetProductLogs named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetProductLogs execution err")
		return nil, err
	}

	result := make([]entity.ProductLog, 0, len(rows))
	for _, row := range rows {
		loggedAt, ok := r.parseLoggedAt(row.LoggedAt.String)
		if !ok {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"log_id":     row.ID.String,
				"logged_at":  row.LoggedAt.String,
			}).Warn("Skipping product log with unparseable timestamp")
			continue
		}
		result = append(result, entity.ProductLog{
			ID:          row.ID.String,
			UserID:      userID,
			ProductName: row.ProductName.String,
			LoggedAt:    loggedAt,
		})
	}

	return result, nil
}

// parseLoggedAt accepts both offset-qualified and naive timestamps.
// Naive values are interpreted as UTC with a warning, per the inbound
// log contract.
func (r *insightRepository) parseLoggedAt(raw string) (time.Time, bool) {
	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			r.log.WithFields(logrus.Fields{
				"logged_at": raw,
			}).Warn("Naive logged_at timestamp, interpreting as UTC")
			return t, true
		}
	}

	return time.Time{}, false
}
