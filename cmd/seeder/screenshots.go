package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// screenshotUploader is the part of services.StorageService the seeder uses.
type screenshotUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// screenshotKey mirrors the path layout the automation system records.
func screenshotKey(stock string) string {
	return "screenshots/" + stock + ".png"
}

// placeholderPNG renders a small solid image tinted by processing status.
func placeholderPNG(v *models.VehicleRecord) ([]byte, error) {
	fill := color.RGBA{R: 0x8b, G: 0xc3, B: 0x4a, A: 0xff}
	if !v.ProcessingSuccessful {
		fill = color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// attachScreenshots uploads a placeholder for every finished record and
// points its screenshot_path at it. Records still processing are skipped.
func attachScreenshots(ctx context.Context, up screenshotUploader, rows []*models.VehicleRecord, log *zap.Logger) (int, error) {
	uploaded := 0
	for _, v := range rows {
		if v.ProcessingStatus != nil && *v.ProcessingStatus == models.StatusProcessing {
			continue
		}
		data, err := placeholderPNG(v)
		if err != nil {
			return uploaded, fmt.Errorf("render screenshot for %s: %w", v.StockNumber, err)
		}
		key := screenshotKey(v.StockNumber)
		if err := up.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"); err != nil {
			log.Warn("screenshot upload failed", zap.String("stock_number", v.StockNumber), zap.Error(err))
			continue
		}
		v.ScreenshotPath = strPtr(key)
		uploaded++
	}
	return uploaded, nil
}
