package models

// DetectionPayload is the raw classification result returned by the external
// inference service. The shape is the service's contract; detected objects
// arrive under the "object" field.
type DetectionPayload struct {
	Crop    string           `json:"crop"`
	Total   int              `json:"total"`
	Risk    string           `json:"risk"`
	Objects []DetectedObject `json:"object"`
}

// DetectedObject is one object the service found in the image. Confidence
// maps candidate species names to scores in [0.0, 1.0]; an ambiguous
// classification carries several entries.
type DetectedObject struct {
	ID         int                `json:"id"`
	Points     BoundingBox        `json:"points"`
	Confidence map[string]float64 `json:"confidence"`
	InsectName string             `json:"insectName"`
	Grow       string             `json:"grow"`
}

// BoundingBox locates a detected object within the image.
type BoundingBox struct {
	XTopLeft     float64 `json:"xtl"`
	YTopLeft     float64 `json:"ytl"`
	XBottomRight float64 `json:"xbr"`
	YBottomRight float64 `json:"ybr"`
}

// PestFinding is one species classification that passed the confidence
// threshold. Findings are derived per request and never persisted.
type PestFinding struct {
	PestName    string      `json:"pestName"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// AnalysisResult is the caller-facing outcome of one image submission.
type AnalysisResult struct {
	ImageRecordID int64         `json:"originImageId"`
	SourceURL     string        `json:"cloudUrl"`
	PestDetected  bool          `json:"pestDetected"`
	Pests         []PestFinding `json:"pests"`
}
