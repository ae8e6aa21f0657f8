package analysisRepository_test

import (
	"DermaTrack/internal/api/analysis"
	analysisRepository "DermaTrack/internal/api/analysis/repository"
	"DermaTrack/internal/entity"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func newTestRepo(t *testing.T) (analysisRepository.Client, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mockSQL, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := analysisRepository.New(db, logger).NewClient(false)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	return client, mockSQL, func() { mockDB.Close() }
}

func testKPI() entity.SkinKPI {
	return entity.SkinKPI{
		UserID:           "u1",
		ImageID:          "img1",
		Timestamp:        time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		FaceAreaPx:       90000,
		BlemishAreaPx:    700,
		PercentBlemished: 0.78,
		MaskVersion:      1,
		FaceImagePath:    "skin/u1/img1_face.png",
		BlemishImagePath: "skin/u1/img1_blemishes.png",
		OverlayImagePath: "skin/u1/img1_overlay.png",
	}
}

func TestUpsertKPI(t *testing.T) {
	tests := []struct {
		name       string
		beforeTest func(sqlmock.Sqlmock)
		wantErr    bool
	}{
		{
			name: "success insert",
			beforeTest: func(mockSQL sqlmock.Sqlmock) {
				mockSQL.ExpectExec("INSERT INTO skin_kpis").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "database error",
			beforeTest: func(mockSQL sqlmock.Sqlmock) {
				mockSQL.ExpectExec("INSERT INTO skin_kpis").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mockSQL, closeDB := newTestRepo(t)
			defer closeDB()

			tt.beforeTest(mockSQL)

			err := client.KPI.UpsertKPI(context.Background(), testKPI())
			if (err != nil) != tt.wantErr {
				t.Errorf("UpsertKPI() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err := mockSQL.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestUpsertKPIConflict(t *testing.T) {
	client, mockSQL, closeDB := newTestRepo(t)
	defer closeDB()

	mockSQL.ExpectExec("INSERT INTO skin_kpis").
		WillReturnError(&pq.Error{Code: "23505"})

	err := client.KPI.UpsertKPI(context.Background(), testKPI())
	if !errors.Is(err, analysis.ErrPersistConflict) {
		t.Errorf("UpsertKPI() error = %v, want %v", err, analysis.ErrPersistConflict)
	}
}

func kpiColumns() []string {
	return []string{
		"user_id", "image_id", "timestamp", "face_area_px", "blemish_area_px",
		"percent_blemished", "mask_version", "face_image_path",
		"blemish_image_path", "overlay_image_path",
	}
}

func TestGetKPI(t *testing.T) {
	want := testKPI()

	tests := []struct {
		name       string
		beforeTest func(sqlmock.Sqlmock)
		want       entity.SkinKPI
		wantErr    error
	}{
		{
			name: "found",
			beforeTest: func(mockSQL sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(kpiColumns()).AddRow(
					want.UserID, want.ImageID, want.Timestamp, want.FaceAreaPx,
					want.BlemishAreaPx, want.PercentBlemished, want.MaskVersion,
					want.FaceImagePath, want.BlemishImagePath, want.OverlayImagePath,
				)
				mockSQL.ExpectQuery("SELECT(.|\n)+FROM skin_kpis").
					WithArgs("u1", "img1").
					WillReturnRows(rows)
			},
			want: want,
		},
		{
			name: "not found",
			beforeTest: func(mockSQL sqlmock.Sqlmock) {
				mockSQL.ExpectQuery("SELECT(.|\n)+FROM skin_kpis").
					WithArgs("u1", "img1").
					WillReturnRows(sqlmock.NewRows(kpiColumns()))
			},
			wantErr: analysis.ErrRecordNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mockSQL, closeDB := newTestRepo(t)
			defer closeDB()

			tt.beforeTest(mockSQL)

			got, err := client.KPI.GetKPI(context.Background(), "u1", "img1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetKPI() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetKPI() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("GetKPI() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestKPIExists(t *testing.T) {
	tests := []struct {
		name       string
		beforeTest func(sqlmock.Sqlmock)
		want       bool
	}{
		{
			name: "row present",
			beforeTest: func(mockSQL sqlmock.Sqlmock) {
				mockSQL.ExpectQuery("SELECT EXISTS").
					WithArgs("u1", "img1").
					WillReturnRows(sqlmock.NewRows([]string{"present"}).AddRow(true))
			},
			want: true,
		},
		{
			name: "row absent",
			beforeTest: func(mockSQL sqlmock.Sqlmock) {
				mockSQL.ExpectQuery("SELECT EXISTS").
					WithArgs("u1", "img1").
					WillReturnRows(sqlmock.NewRows([]string{"present"}).AddRow(false))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mockSQL, closeDB := newTestRepo(t)
			defer closeDB()

			tt.beforeTest(mockSQL)

			got, err := client.KPI.KPIExists(context.Background(), "u1", "img1")
			if err != nil {
				t.Fatalf("KPIExists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("KPIExists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteKPIsByUserID(t *testing.T) {
	client, mockSQL, closeDB := newTestRepo(t)
	defer closeDB()

	mockSQL.ExpectExec("DELETE FROM skin_kpis").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	got, err := client.KPI.DeleteKPIsByUserID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DeleteKPIsByUserID() error = %v", err)
	}
	if got != 3 {
		t.Errorf("DeleteKPIsByUserID() = %d, want 3", got)
	}
}

func TestGetKPIsByUserIDOrdering(t *testing.T) {
	client, mockSQL, closeDB := newTestRepo(t)
	defer closeDB()

	first := testKPI()
	second := testKPI()
	second.ImageID = "img2"
	second.Timestamp = first.Timestamp.Add(48 * time.Hour)

	rows := sqlmock.NewRows(kpiColumns())
	for _, kpi := range []entity.SkinKPI{first, second} {
		rows.AddRow(
			kpi.UserID, kpi.ImageID, kpi.Timestamp, kpi.FaceAreaPx,
			kpi.BlemishAreaPx, kpi.PercentBlemished, kpi.MaskVersion,
			kpi.FaceImagePath, kpi.BlemishImagePath, kpi.OverlayImagePath,
		)
	}

	mockSQL.ExpectQuery("SELECT(.|\n)+FROM skin_kpis(.|\n)+ORDER BY timestamp ASC").
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := client.KPI.GetKPIsByUserID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetKPIsByUserID() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ImageID != "img1" || got[1].ImageID != "img2" {
		t.Errorf("order = %s, %s, want img1, img2", got[0].ImageID, got[1].ImageID)
	}
}
