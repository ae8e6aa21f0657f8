package insightsRepository

import (
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
)

// sqlx.Named treats "::" as an escaped colon, so a bare "logged_at::text"
// cast reaches the driver as the invalid "logged_at:text". The queries
// must keep the CAST() form, which the rewrite leaves alone.
func TestLoggedAtQueriesSurviveNamedRewrite(t *testing.T) {
	queries := map[string]string{
		"trigger_logs": queryGetTriggerLogs,
		"symptom_logs": queryGetSymptomLogs,
		"product_logs": queryGetProductLogs,
	}

	for name, query := range queries {
		t.Run(name, func(t *testing.T) {
			bound, args, err := sqlx.Named(query, map[string]interface{}{"user_id": "u1"})
			if err != nil {
				t.Fatalf("sqlx.Named: %v", err)
			}
			if len(args) != 1 {
				t.Fatalf("got %d bind args, want 1", len(args))
			}
			if !strings.Contains(bound, "CAST(logged_at AS text)") {
				t.Errorf("rewritten query lost the text cast:\n%s", bound)
			}
			if strings.Contains(bound, "logged_at:") {
				t.Errorf("rewritten query contains a mangled cast:\n%s", bound)
			}
		})
	}
}
