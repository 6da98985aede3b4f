package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"farmguardian/internal/models"
	"farmguardian/internal/repository"
	"farmguardian/internal/services/inference"
)

// ---- fakes ----

type fakeDevices struct {
	byUUID map[string]*models.Device
}

func (f *fakeDevices) GetByUUID(deviceUUID string) (*models.Device, error) {
	return f.byUUID[deviceUUID], nil
}

func (f *fakeDevices) GetMobileDeviceByUserID(userID int64) (*models.Device, error) {
	return f.byUUID[fmt.Sprintf("mobile-user-%d", userID)], nil
}

type memImages struct {
	records map[int64]*models.ImageRecord
	nextID  int64
}

func newMemImages() *memImages {
	return &memImages{records: make(map[int64]*models.ImageRecord)}
}

func (m *memImages) Insert(img *models.ImageRecord) (int64, error) {
	m.nextID++
	stored := *img
	stored.ID = m.nextID
	m.records[stored.ID] = &stored
	return stored.ID, nil
}

func (m *memImages) GetByID(id int64) (*models.ImageRecord, error) {
	if rec, ok := m.records[id]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (m *memImages) GetAllByUserID(int64, int, int) ([]models.ImageRecord, error)   { return nil, nil }
func (m *memImages) GetAllByDeviceID(int64, int, int) ([]models.ImageRecord, error) { return nil, nil }

func (m *memImages) AttachAnalysisResult(imageID int64, payload []byte) error {
	rec, ok := m.records[imageID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.AnalysisResult = append([]byte(nil), payload...)
	return nil
}

type fakeInference struct {
	payload *models.DetectionPayload
	raw     []byte
	err     error
	calls   int
}

func (f *fakeInference) Infer(_ context.Context, _ string) (*models.DetectionPayload, []byte, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.payload, f.raw, nil
}

type notifyCall struct {
	userID    int64
	pestCount int
	imageID   int64
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) Dispatch(userID int64, pestCount int, imageRecordID int64) {
	f.calls = append(f.calls, notifyCall{userID, pestCount, imageRecordID})
}

// ---- fixtures ----

const (
	ownerID  = int64(42)
	deviceID = int64(7)
)

func ownedDevice() *models.Device {
	owner := ownerID
	return &models.Device{
		ID:         deviceID,
		DeviceUUID: "dev-uuid-1",
		UserID:     &owner,
		Status:     models.DeviceStatusConnected,
	}
}

func pestPayload() (*models.DetectionPayload, []byte) {
	raw := []byte(`{"crop":"tomato","total":2,"risk":"high","object":[{"id":1,"points":{"xtl":1,"ytl":2,"xbr":3,"ybr":4},"confidence":{"aphid":0.35,"mite":0.1},"insectName":"aphid","grow":"adult"}]}`)
	return &models.DetectionPayload{
		Crop:  "tomato",
		Total: 2,
		Risk:  "high",
		Objects: []models.DetectedObject{
			{
				ID:         1,
				Points:     models.BoundingBox{XTopLeft: 1, YTopLeft: 2, XBottomRight: 3, YBottomRight: 4},
				Confidence: map[string]float64{"aphid": 0.35, "mite": 0.1},
			},
		},
	}, raw
}

func newTestService(devs *fakeDevices, images *memImages, inf *fakeInference, notifier *fakeNotifier, threshold float64) *Service {
	return NewService(devs, images, inf, notifier, threshold, zap.NewNop())
}

// ---- tests ----

func TestAnalyzeDeviceImage_DeviceNotFound(t *testing.T) {
	images := newMemImages()
	svc := newTestService(&fakeDevices{byUUID: map[string]*models.Device{}}, images, &fakeInference{}, &fakeNotifier{}, 0.2)

	result, err := svc.AnalyzeDeviceImage(context.Background(), DeviceImageRequest{
		DeviceUUID: "unknown", SourceURL: "https://bucket/img.jpg", Width: 640, Height: 480,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
	assert.Nil(t, result)
	// Fatal before persistence: no record is created.
	assert.Empty(t, images.records)
}

func TestAnalyzeDeviceImage_Success(t *testing.T) {
	payload, raw := pestPayload()
	images := newMemImages()
	notifier := &fakeNotifier{}
	devs := &fakeDevices{byUUID: map[string]*models.Device{"dev-uuid-1": ownedDevice()}}
	svc := newTestService(devs, images, &fakeInference{payload: payload, raw: raw}, notifier, 0.2)

	temp := 23.5
	result, err := svc.AnalyzeDeviceImage(context.Background(), DeviceImageRequest{
		DeviceUUID: "dev-uuid-1", SourceURL: "https://bucket/img.jpg",
		Width: 640, Height: 480, Temperature: &temp,
	})

	require.NoError(t, err)
	assert.True(t, result.PestDetected)
	require.Len(t, result.Pests, 1)
	assert.Equal(t, "aphid", result.Pests[0].PestName)
	assert.Equal(t, "https://bucket/img.jpg", result.SourceURL)

	// The raw response is stored verbatim on the record.
	rec, err := images.GetByID(result.ImageRecordID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, raw, rec.AnalysisResult)
	assert.Equal(t, deviceID, rec.DeviceID)
	require.NotNil(t, rec.Temperature)
	assert.InDelta(t, 23.5, *rec.Temperature, 1e-9)

	// The owning user is notified once, with the finding count.
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, notifyCall{userID: ownerID, pestCount: 1, imageID: result.ImageRecordID}, notifier.calls[0])
}

func TestAnalyzeDeviceImage_UnownedDeviceNeverNotifies(t *testing.T) {
	payload, raw := pestPayload()
	dev := ownedDevice()
	dev.UserID = nil
	notifier := &fakeNotifier{}
	svc := newTestService(&fakeDevices{byUUID: map[string]*models.Device{"dev-uuid-1": dev}},
		newMemImages(), &fakeInference{payload: payload, raw: raw}, notifier, 0.2)

	result, err := svc.AnalyzeDeviceImage(context.Background(), DeviceImageRequest{
		DeviceUUID: "dev-uuid-1", SourceURL: "https://bucket/img.jpg", Width: 640, Height: 480,
	})

	require.NoError(t, err)
	assert.True(t, result.PestDetected)
	assert.Empty(t, notifier.calls)
}

func TestAnalyzeDeviceImage_InferenceFailureKeepsRecord(t *testing.T) {
	images := newMemImages()
	notifier := &fakeNotifier{}
	svc := newTestService(&fakeDevices{byUUID: map[string]*models.Device{"dev-uuid-1": ownedDevice()}},
		images, &fakeInference{err: fmt.Errorf("%w: call service", inference.ErrUnavailable)}, notifier, 0.2)

	result, err := svc.AnalyzeDeviceImage(context.Background(), DeviceImageRequest{
		DeviceUUID: "dev-uuid-1", SourceURL: "https://bucket/img.jpg", Width: 640, Height: 480,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, inference.ErrUnavailable))
	assert.Nil(t, result)

	// The submission is never lost: metadata persisted, payload absent.
	require.Len(t, images.records, 1)
	for _, rec := range images.records {
		assert.Equal(t, "https://bucket/img.jpg", rec.SourceURL)
		assert.Nil(t, rec.AnalysisResult)
	}
	assert.Empty(t, notifier.calls)
}

func TestAnalyzeDeviceImage_LowConfidenceOnly(t *testing.T) {
	payload, raw := pestPayload()
	notifier := &fakeNotifier{}
	images := newMemImages()
	svc := newTestService(&fakeDevices{byUUID: map[string]*models.Device{"dev-uuid-1": ownedDevice()}},
		images, &fakeInference{payload: payload, raw: raw}, notifier, 0.5)

	result, err := svc.AnalyzeDeviceImage(context.Background(), DeviceImageRequest{
		DeviceUUID: "dev-uuid-1", SourceURL: "https://bucket/img.jpg", Width: 640, Height: 480,
	})

	require.NoError(t, err)
	assert.False(t, result.PestDetected)
	assert.Empty(t, result.Pests)
	assert.Empty(t, notifier.calls)

	// The raw payload (with total=2) is still stored for the read side.
	rec, _ := images.GetByID(result.ImageRecordID)
	assert.Equal(t, raw, rec.AnalysisResult)
}

func TestAnalyzeMobileImage_NotifiesSubmittingUser(t *testing.T) {
	payload, raw := pestPayload()
	userID := int64(9)
	mobile := &models.Device{ID: 77, DeviceUUID: "mobile-user-9", UserID: &userID, Status: models.DeviceStatusConnected}
	notifier := &fakeNotifier{}
	images := newMemImages()
	svc := newTestService(&fakeDevices{byUUID: map[string]*models.Device{"mobile-user-9": mobile}},
		images, &fakeInference{payload: payload, raw: raw}, notifier, 0.2)

	result, err := svc.AnalyzeMobileImage(context.Background(), userID, MobileImageRequest{
		SourceURL: "https://bucket/selfie.jpg", Width: 1080, Height: 1920,
	})

	require.NoError(t, err)
	assert.True(t, result.PestDetected)

	rec, _ := images.GetByID(result.ImageRecordID)
	assert.Equal(t, int64(77), rec.DeviceID)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, userID, notifier.calls[0].userID)
}

func TestAnalyzeMobileImage_NoMobileDevice(t *testing.T) {
	svc := newTestService(&fakeDevices{byUUID: map[string]*models.Device{}},
		newMemImages(), &fakeInference{}, &fakeNotifier{}, 0.2)

	_, err := svc.AnalyzeMobileImage(context.Background(), 5, MobileImageRequest{
		SourceURL: "https://bucket/selfie.jpg", Width: 100, Height: 100,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
}
