package models

// Overall severity buckets summarizing an image's aggregate damage.
const (
	SeverityNone     = "none"
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityError    = "error"
)

// DamageFinding is one detected instance of physical vehicle damage.
// BBox is [x1, y1, x2, y2] in image pixel space as estimated by the
// model. Coordinates are not validated or clamped; the model may emit
// inconsistent boxes.
type DamageFinding struct {
	Type        string `json:"type"`
	BBox        []int  `json:"bbox"`
	Severity    int    `json:"severity"`
	Description string `json:"description"`
}

// ImageAnalysisResult is the per-image analysis record returned to the
// caller. TotalDamages and OverallSeverity are derived from Damages and
// never set independently.
type ImageAnalysisResult struct {
	ImageName       string          `json:"image_name"`
	Damages         []DamageFinding `json:"damages"`
	TotalDamages    int             `json:"total_damages"`
	OverallSeverity string          `json:"overall_severity"`
	Error           string          `json:"error,omitempty"`
}
