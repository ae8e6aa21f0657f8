package insightsRepository

// logged_at is selected as text so the repository can tell aware
// timestamps from naive ones; see parseLoggedAt. The cast uses the
// CAST() form because the named-parameter rewrite treats "::" as an
// escaped colon and would mangle a bare cast.
const (
	queryGetKPIsSince = `
		SELECT
			timestamp,
			face_area_px,
			blemish_area_px,
			percent_blemished
		FROM skin_kpis
		WHERE user_id = :user_id AND timestamp >= :since
		ORDER BY timestamp ASC
	`

	queryGetTriggerLogs = `
		SELECT
			id,
			trigger_name,
			CAST(logged_at AS text) AS logged_at
		FROM trigger_logs
		WHERE user_id = :user_id
		ORDER BY logged_at ASC
	`

	queryGetSymptomLogs = `
		SELECT
			id,
			symptom_name,
			severity,
			CAST(logged_at AS text) AS logged_at
		FROM symptom_logs
		WHERE user_id = :user_id
		ORDER BY logged_at ASC
	`

	queryGetProductLogs = `
		SELECT
			id,
			product_name,
			CAST(logged_at AS text) AS logged_at
		FROM product_logs
		WHERE user_id = :user_id
		ORDER BY logged_at ASC
	`
)
