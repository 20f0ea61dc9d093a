package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text through libtesseract.
type Tesseract struct {
	opts Options
}

// NewTesseract creates a libtesseract backend.
func NewTesseract(opts Options) *Tesseract {
	return &Tesseract{opts: opts.withDefaults()}
}

// Recognize runs OCR on img and returns the raw text Tesseract produced,
// including any trailing newline.
//
// A fresh client is created for every call because gosseract clients are
// not goroutine-safe. The context is checked before the (uninterruptible)
// recognition starts.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client, err := t.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

func (t *Tesseract) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetWhitelist(t.opts.Whitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.opts.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return client, nil
}

// Info reports the linked Tesseract version.
func (t *Tesseract) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	if version == "" {
		return Info{
			Available: false,
			Error:     "libtesseract did not report a version",
			Backend:   "gosseract",
		}
	}

	return Info{
		Available: true,
		Version:   version,
		Backend:   "gosseract",
	}
}
