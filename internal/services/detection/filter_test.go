package detection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmguardian/internal/models"
)

func samplePayload() *models.DetectionPayload {
	return &models.DetectionPayload{
		Crop:  "tomato",
		Total: 2,
		Risk:  "high",
		Objects: []models.DetectedObject{
			{
				ID:         1,
				Points:     models.BoundingBox{XTopLeft: 10, YTopLeft: 20, XBottomRight: 110, YBottomRight: 120},
				Confidence: map[string]float64{"aphid": 0.35, "mite": 0.1},
				InsectName: "aphid",
				Grow:       "adult",
			},
		},
	}
}

func TestFilterFindings_EmptyObjects(t *testing.T) {
	tests := []struct {
		name    string
		payload *models.DetectionPayload
	}{
		{"nil payload", nil},
		{"nil objects", &models.DetectionPayload{Crop: "tomato", Total: 0}},
		{"empty objects", &models.DetectionPayload{Crop: "tomato", Objects: []models.DetectedObject{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := FilterFindings(tt.payload, DefaultConfidenceThreshold)
			assert.Empty(t, findings)
		})
	}
}

func TestFilterFindings_ThresholdBoundaryIsInclusive(t *testing.T) {
	payload := &models.DetectionPayload{
		Objects: []models.DetectedObject{
			{Confidence: map[string]float64{"aphid": 0.2}},
		},
	}

	findings := FilterFindings(payload, 0.2)
	require.Len(t, findings, 1)
	assert.Equal(t, "aphid", findings[0].PestName)
	assert.InDelta(t, 0.2, findings[0].Confidence, 1e-9)
}

func TestFilterFindings_ExampleThreshold02(t *testing.T) {
	findings := FilterFindings(samplePayload(), 0.2)

	require.Len(t, findings, 1)
	assert.Equal(t, "aphid", findings[0].PestName)
	assert.InDelta(t, 0.35, findings[0].Confidence, 1e-9)
	assert.InDelta(t, 10.0, findings[0].BoundingBox.XTopLeft, 1e-9)
}

func TestFilterFindings_ExampleThreshold05(t *testing.T) {
	// total=2 in the raw payload, but no species entry reaches 0.5.
	findings := FilterFindings(samplePayload(), 0.5)
	assert.Empty(t, findings)
}

func TestFilterFindings_MultipleFindingsPerObject(t *testing.T) {
	payload := &models.DetectionPayload{
		Objects: []models.DetectedObject{
			{
				Points:     models.BoundingBox{XTopLeft: 1},
				Confidence: map[string]float64{"aphid": 0.6, "whitefly": 0.4, "mite": 0.05},
			},
		},
	}

	findings := FilterFindings(payload, 0.2)
	require.Len(t, findings, 2)

	// An ambiguous classification surfaces every qualifying species.
	names := map[string]bool{}
	for _, f := range findings {
		names[f.PestName] = true
		assert.InDelta(t, 1.0, f.BoundingBox.XTopLeft, 1e-9)
	}
	assert.True(t, names["aphid"])
	assert.True(t, names["whitefly"])
}

func TestFilterFindings_ObjectsWithoutConfidenceAreSkipped(t *testing.T) {
	payload := &models.DetectionPayload{
		Objects: []models.DetectedObject{
			{Confidence: nil},
			{Confidence: map[string]float64{"aphid": 0.9}},
		},
	}

	findings := FilterFindings(payload, 0.2)
	require.Len(t, findings, 1)
	assert.Equal(t, "aphid", findings[0].PestName)
}

func TestFilterFindings_EveryFindingComesFromSourceObject(t *testing.T) {
	payload := &models.DetectionPayload{
		Objects: []models.DetectedObject{
			{Confidence: map[string]float64{"aphid": 0.5, "mite": 0.3}},
			{Confidence: map[string]float64{"whitefly": 0.25}},
			{Confidence: map[string]float64{"thrips": 0.01}},
		},
	}

	findings := FilterFindings(payload, 0.2)

	totalEntries := 0
	allNames := map[string]bool{}
	for _, obj := range payload.Objects {
		totalEntries += len(obj.Confidence)
		for name := range obj.Confidence {
			allNames[name] = true
		}
	}

	assert.LessOrEqual(t, len(findings), totalEntries)
	for _, f := range findings {
		assert.True(t, allNames[f.PestName], "finding %q not present in any source object", f.PestName)
	}
}

func TestPestDetectedFromRaw(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{"total above one", `{"crop":"tomato","total":2,"risk":"high","object":[]}`, true},
		{"total exactly one", `{"total":1}`, true},
		{"total zero", `{"total":0}`, false},
		{"total missing", `{"crop":"tomato"}`, false},
		{"empty payload", ``, false},
		{"malformed json", `{total:`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []byte
			if tt.raw != "" {
				raw = []byte(tt.raw)
			}
			assert.Equal(t, tt.expected, PestDetectedFromRaw(raw))
		})
	}
}

// The two pest-detected computations use different criteria and may
// disagree: a low-confidence-only payload is negative at ingestion time but
// positive on the read side.
func TestPestDetectedComputationsCanDiverge(t *testing.T) {
	raw := []byte(`{"crop":"tomato","total":1,"risk":"low","object":[{"id":1,"confidence":{"mite":0.1}}]}`)

	var payload models.DetectionPayload
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Empty(t, FilterFindings(&payload, DefaultConfidenceThreshold))
	assert.True(t, PestDetectedFromRaw(raw))
}
