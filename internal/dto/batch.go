package dto

// ProcessRequest carries the settings of one processing run. Percent and
// Width are the two resize modes exposed to clients and are mutually
// exclusive; Height and Quality are accepted for direct API use.
type ProcessRequest struct {
	Format  string  `json:"format" validate:"required,oneof=png jpeg webp"`
	Percent float64 `json:"percent,omitempty" validate:"omitempty,gt=0,lte=1000"`
	Width   int     `json:"width,omitempty" validate:"omitempty,gt=0,lte=10000"`
	Height  int     `json:"height,omitempty" validate:"omitempty,gt=0,lte=10000"`
	Quality int     `json:"quality,omitempty" validate:"omitempty,gte=1,lte=100"`
	Upscale bool    `json:"upscale,omitempty"`
}

type ResultResponse struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	MimeType   string `json:"mime_type"`
	PreviewURL string `json:"preview_url"`
}

type FileResponse struct {
	ID           string          `json:"id"`
	Filename     string          `json:"filename"`
	MimeType     string          `json:"mime_type"`
	Size         int64           `json:"size"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	PreviewURL   string          `json:"preview_url"`
	Result       *ResultResponse `json:"result,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type BatchResponse struct {
	ID        string         `json:"id"`
	Files     []FileResponse `json:"files"`
	CreatedAt string         `json:"created_at"`
}

type FileStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RunSummary reports the outcome of one driver pass over a batch.
type RunSummary struct {
	BatchID  string `json:"batch_id"`
	Total    int    `json:"total"`
	Finished int    `json:"finished"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}
