package models

import "time"

// ImageRecord represents one submitted image. AnalysisResult holds the raw
// inference response verbatim; it stays nil until the external call succeeds.
type ImageRecord struct {
	ID             int64     `json:"id"`
	DeviceID       int64     `json:"deviceId"`
	SourceURL      string    `json:"cloudUrl"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Temperature    *float64  `json:"temperature,omitempty"`
	Humidity       *float64  `json:"humidity,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	AnalysisResult []byte    `json:"-"`
}
