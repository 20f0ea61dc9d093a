package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestResizeToWidth(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		target        int
		wantHeight    int
	}{
		{"shrink", 1200, 800, 600, 400},
		{"enlarge", 300, 150, 600, 300},
		{"same width", 600, 450, 600, 450},
		{"portrait", 400, 1000, 600, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(tt.width, tt.height, color.RGBA{90, 90, 90, 255})

			result := ResizeToWidth(img, tt.target)

			if result.Bounds().Dx() != tt.target || result.Bounds().Dy() != tt.wantHeight {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					result.Bounds().Dx(), result.Bounds().Dy(), tt.target, tt.wantHeight)
			}
			if c := result.NRGBAAt(tt.target/2, tt.wantHeight/2); c.R != 90 {
				t.Errorf("solid color should survive resize, got %v", c)
			}
		})
	}
}

func TestResizeToWidth_DoesNotAlias(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 600, 10))
	result := ResizeToWidth(src, 600)

	result.Pix[0] = 77
	if src.Pix[0] == 77 {
		t.Error("result shares pixels with the source")
	}
}

func TestCropGray(t *testing.T) {
	gray := solidGray(100, 50, 0)
	fillGray(gray, image.Rect(10, 10, 30, 20), 200)

	result, err := CropGray(gray, image.Rect(10, 10, 30, 20))
	if err != nil {
		t.Fatalf("CropGray failed: %v", err)
	}

	if result.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("bounds: got %v, want (0,0)-(20,10)", result.Bounds())
	}
	for _, v := range result.Pix {
		if v != 200 {
			t.Fatalf("cropped pixel: got %d, want 200", v)
		}
	}

	// Independent copy
	result.Pix[0] = 1
	if gray.GrayAt(10, 10).Y != 200 {
		t.Error("crop modified the source image")
	}
}

func TestCropGray_InvalidRegion(t *testing.T) {
	gray := solidGray(100, 50, 0)

	tests := []struct {
		name   string
		region image.Rectangle
	}{
		{"outside", image.Rect(90, 40, 110, 60)},
		{"negative", image.Rect(-5, 0, 10, 10)},
		{"empty", image.Rect(10, 10, 10, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropGray(gray, tt.region); err == nil {
				t.Errorf("expected error for region %v", tt.region)
			}
		})
	}
}
