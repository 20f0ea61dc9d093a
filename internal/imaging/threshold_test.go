package imaging

import (
	"image"
	"testing"
)

func TestOtsuLevel_Bimodal(t *testing.T) {
	gray := solidGray(60, 20, 40)
	fillGray(gray, image.Rect(30, 0, 60, 20), 200)

	level := OtsuLevel(gray)
	if level < 40 || level >= 200 {
		t.Errorf("level: got %d, want in [40, 200)", level)
	}
}

func TestOtsuLevel_Uniform(t *testing.T) {
	if level := OtsuLevel(solidGray(10, 10, 77)); level != 77 {
		t.Errorf("level: got %d, want 77", level)
	}
}

func TestBinarizeOtsu(t *testing.T) {
	// Dark characters on a light plate
	gray := solidGray(80, 20, 210)
	fillGray(gray, image.Rect(10, 5, 20, 15), 30)
	fillGray(gray, image.Rect(40, 5, 50, 15), 30)

	bin := BinarizeOtsu(gray)

	if bin.Bounds() != gray.Bounds() {
		t.Fatalf("bounds: got %v, want %v", bin.Bounds(), gray.Bounds())
	}
	if bin.GrayAt(15, 10).Y != 0 {
		t.Errorf("character pixel: got %d, want 0", bin.GrayAt(15, 10).Y)
	}
	if bin.GrayAt(30, 10).Y != 255 {
		t.Errorf("background pixel: got %d, want 255", bin.GrayAt(30, 10).Y)
	}
	for i, v := range bin.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d is not binary: %d", i, v)
		}
	}
}

func TestBinarizeOtsu_UniformIsBlack(t *testing.T) {
	for _, v := range []uint8{0, 128, 255} {
		bin := BinarizeOtsu(solidGray(8, 8, v))
		if countNonZero(bin) != 0 {
			t.Errorf("uniform %d: expected all-black result", v)
		}
	}
}

func TestBinarizeOtsu_OneStepAboveLevel(t *testing.T) {
	gray := solidGray(20, 10, 10)
	fillGray(gray, image.Rect(10, 0, 20, 10), 11)

	if level := OtsuLevel(gray); level != 10 {
		t.Fatalf("level: got %d, want 10", level)
	}

	bin := BinarizeOtsu(gray)
	if got := bin.GrayAt(5, 5).Y; got != 0 {
		t.Errorf("pixel at level: got %d, want 0", got)
	}
	if got := bin.GrayAt(15, 5).Y; got != 255 {
		t.Errorf("pixel one above level: got %d, want 255", got)
	}
	if got, want := countNonZero(bin), 10*10; got != want {
		t.Errorf("white pixels: got %d, want %d", got, want)
	}
}

func TestBinarizeOtsu_EveryLevel(t *testing.T) {
	for v := 0; v < 255; v++ {
		gray := solidGray(4, 2, uint8(v))
		fillGray(gray, image.Rect(2, 0, 4, 2), uint8(v+1))

		bin := BinarizeOtsu(gray)
		if bin.GrayAt(0, 0).Y != 0 || bin.GrayAt(3, 1).Y != 255 {
			t.Errorf("values %d/%d: got %d/%d, want 0/255", v, v+1, bin.GrayAt(0, 0).Y, bin.GrayAt(3, 1).Y)
		}
	}
}
