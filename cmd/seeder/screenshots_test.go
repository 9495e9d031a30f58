package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

type memUploader struct {
	objects map[string][]byte
	types   map[string]string
	fail    string
}

func newMemUploader() *memUploader {
	return &memUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memUploader) Upload(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == m.fail {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

var _ screenshotUploader = (*services.StorageService)(nil)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestAttachScreenshots(t *testing.T) {
	rows := []*models.VehicleRecord{
		{StockNumber: "S10000", ProcessingStatus: strPtr(models.StatusCompleted), ProcessingSuccessful: true},
		{StockNumber: "S10001", ProcessingStatus: strPtr(models.StatusFailed)},
		{StockNumber: "S10002", ProcessingStatus: strPtr(models.StatusProcessing)},
		{StockNumber: "S10003", ProcessingStatus: strPtr(models.StatusCompleted), ProcessingSuccessful: true},
	}
	up := newMemUploader()
	up.fail = screenshotKey("S10003")

	n, err := attachScreenshots(context.Background(), up, rows, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NotNil(t, rows[0].ScreenshotPath)
	assert.Equal(t, "screenshots/S10000.png", *rows[0].ScreenshotPath)
	require.NotNil(t, rows[1].ScreenshotPath)
	assert.Equal(t, "screenshots/S10001.png", *rows[1].ScreenshotPath)
	assert.Nil(t, rows[2].ScreenshotPath, "records still processing have no screenshot")
	assert.Nil(t, rows[3].ScreenshotPath, "failed uploads leave the path unset")

	for key, data := range up.objects {
		assert.Equal(t, "image/png", up.types[key])
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, key)
		assert.Equal(t, 64, img.Bounds().Dx())
	}
	assert.Equal(t, "screenshots/S10000.png", services.ObjectKey(*rows[0].ScreenshotPath))
}

func TestSampleVehiclesShape(t *testing.T) {
	rows := sampleVehicles(50, "S9", 10, fixedNow)
	require.Len(t, rows, 50)
	for _, v := range rows {
		require.NotNil(t, v.StoreID)
		assert.Equal(t, "S9", *v.StoreID)
		assert.False(t, v.ProcessingDate.After(fixedNow))
		assert.Nil(t, v.ScreenshotPath)
		if v.ProcessingSuccessful {
			assert.Equal(t, models.StatusCompleted, *v.ProcessingStatus)
		}
	}
}
