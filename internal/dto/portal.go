package dto

// NotificationQuery carries the notification criterion from query parameters.
type NotificationQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
}

// LatestNotificationsQuery bounds the latest notices list.
type LatestNotificationsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// TranscriptQuery selects the transcript output format.
type TranscriptQuery struct {
	Format string `form:"format"`
}

// TranslateConceptRequest is a raw concept record to render with display labels.
type TranslateConceptRequest struct {
	ID            string `json:"id"`
	Concept       string `json:"concept"`
	UnitCode      string `json:"unit_code" binding:"required_without=ResultCode"`
	ResultCode    string `json:"result_code"`
	EnrollmentKey string `json:"enrollment_key"`
}
