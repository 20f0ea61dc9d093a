package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is returned (wrapped) whenever uploaded bytes or a data URL
// cannot be turned into a bitmap.
var ErrDecode = errors.New("image decode failed")

// MaxDecodeBytes caps how much of an upload stream is read before decoding.
const MaxDecodeBytes = 32 << 20

// MaxDecodePixels caps the declared width*height of an image. The header is
// checked before any pixel memory is allocated.
const MaxDecodePixels = 40_000_000

// Decode reads an encoded image from r and returns it as an opaque NRGBA bitmap.
//
// The stream may be PNG, JPEG, GIF, BMP, TIFF or WebP. JPEG EXIF orientation
// is applied so phone photos come out upright.
//
// # Channel Order
//
// The returned bitmap always uses Go's NRGBA layout (R, G, B, A per pixel)
// with every alpha value forced to 255, so downstream code can treat it as a
// plain 3-channel image regardless of the source format.
//
// # Errors
//
// Every failure wraps ErrDecode:
//   - empty input
//   - input larger than MaxDecodeBytes
//   - declared dimensions above MaxDecodePixels
//   - unknown or corrupt image data
func Decode(r io.Reader) (*image.NRGBA, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDecodeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrDecode, err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode for an in-memory buffer.
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if len(data) > MaxDecodeBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrDecode, MaxDecodeBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, fmt.Errorf("%w: image is %dx%d, over the %d pixel limit", ErrDecode, cfg.Width, cfg.Height, MaxDecodePixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return toOpaqueNRGBA(img), nil
}

// DecodeDataURL decodes a canvas capture of the form "<header>,<base64 payload>",
// e.g. "data:image/png;base64,iVBORw0...".
//
// Only the part after the first comma is used; the header is not inspected,
// the image format is sniffed from the payload itself. Padding may be
// omitted and the payload may contain line breaks.
func DecodeDataURL(dataURL string) (*image.NRGBA, error) {
	_, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URL has no comma separator", ErrDecode)
	}

	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, payload)
	payload = strings.TrimRight(payload, "=")

	data, err := base64.RawStdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrDecode, err)
	}

	return DecodeBytes(data)
}

// toOpaqueNRGBA copies img into a zero-origin NRGBA and discards the alpha
// channel, keeping the straight (non-premultiplied) colour values.
func toOpaqueNRGBA(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
