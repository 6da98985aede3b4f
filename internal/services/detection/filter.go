// Package detection interprets raw inference payloads against the
// confidence policy. The ingestion-time filter (FilterFindings) and the
// read-side flag (PestDetectedFromRaw) intentionally use different criteria
// and can disagree for low-confidence-only payloads.
package detection

import (
	"encoding/json"

	"farmguardian/internal/models"
)

// DefaultConfidenceThreshold is the policy minimum for a species entry to
// count as an actionable finding. Inclusive boundary.
const DefaultConfidenceThreshold = 0.2

// FilterFindings extracts the pest findings from a raw payload. Every
// species entry of every detected object is evaluated independently, so one
// object can yield several findings. Objects are visited in payload order
// and an object's findings stay contiguous. A payload with no objects
// yields an empty result.
func FilterFindings(payload *models.DetectionPayload, threshold float64) []models.PestFinding {
	findings := []models.PestFinding{}
	if payload == nil || len(payload.Objects) == 0 {
		return findings
	}

	for _, obj := range payload.Objects {
		if obj.Confidence == nil {
			continue
		}
		for name, confidence := range obj.Confidence {
			if confidence >= threshold {
				findings = append(findings, models.PestFinding{
					PestName:    name,
					Confidence:  confidence,
					BoundingBox: obj.Points,
				})
			}
		}
	}

	return findings
}

// PestDetectedFromRaw recomputes the pest flag for the read side from a
// stored raw payload: total >= 1, no confidence threshold applied. This is
// deliberately a separate computation from FilterFindings. Malformed or
// absent payloads report false.
func PestDetectedFromRaw(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}

	var partial struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(raw, &partial); err != nil {
		return false
	}
	return partial.Total >= 1
}
