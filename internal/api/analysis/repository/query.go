package analysisRepository

const (
	queryUpsertKPI = `
		INSERT INTO skin_kpis (
			user_id,
			image_id,
			timestamp,
			face_area_px,
			blemish_area_px,
			percent_blemished,
			mask_version,
			face_image_path,
			blemish_image_path,
			overlay_image_path
		) VALUES (
			:user_id,
			:image_id,
			:timestamp,
			:face_area_px,
			:blemish_area_px,
			:percent_blemished,
			:mask_version,
			:face_image_path,
			:blemish_image_path,
			:overlay_image_path
		)
		ON CONFLICT (user_id, image_id) DO UPDATE SET
			timestamp = EXCLUDED.timestamp,
			face_area_px = EXCLUDED.face_area_px,
			blemish_area_px = EXCLUDED.blemish_area_px,
			percent_blemished = EXCLUDED.percent_blemished,
			mask_version = EXCLUDED.mask_version,
			face_image_path = EXCLUDED.face_image_path,
			blemish_image_path = EXCLUDED.blemish_image_path,
			overlay_image_path = EXCLUDED.overlay_image_path
	`

	queryGetKPI = `
		SELECT
			user_id,
			image_id,
			timestamp,
			face_area_px,
			blemish_area_px,
			percent_blemished,
			mask_version,
			face_image_path,
			blemish_image_path,
			overlay_image_path
		FROM skin_kpis
		WHERE user_id = :user_id AND image_id = :image_id
	`

	queryGetKPIsByUser = `
		SELECT
			user_id,
			image_id,
			timestamp,
			face_area_px,
			blemish_area_px,
			percent_blemished,
			mask_version,
			face_image_path,
			blemish_image_path,
			overlay_image_path
		FROM skin_kpis
		WHERE user_id = :user_id
		ORDER BY timestamp ASC
	`

	queryKPIExists = `
		SELECT EXISTS (
			SELECT 1
			FROM skin_kpis
			WHERE user_id = :user_id AND image_id = :image_id
		) AS present
	`

	queryDeleteKPIsByUser = `
		DELETE FROM skin_kpis
		WHERE user_id = :user_id
	`
)
