package analysis

type KPIRecordResponse struct {
	UserID           string  `json:"user_id"`
	ImageID          string  `json:"image_id"`
	Timestamp        string  `json:"timestamp"`
	FaceAreaPx       int     `json:"face_area_px"`
	BlemishAreaPx    int     `json:"blemish_area_px"`
	PercentBlemished float64 `json:"percent_blemished"`
	MaskVersion      int     `json:"mask_version"`
	FaceImageURL     string  `json:"face_image_url"`
	BlemishImageURL  string  `json:"blemish_image_url"`
	OverlayImageURL  string  `json:"overlay_image_url"`
}

type AnalyzeResponse struct {
	FaceDetected bool               `json:"face_detected"`
	Message      string             `json:"message,omitempty"`
	Record       *KPIRecordResponse `json:"record,omitempty"`
}

type RecordListResponse struct {
	Records []KPIRecordResponse `json:"records"`
	Total   int                 `json:"total"`
}
