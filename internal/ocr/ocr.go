package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PlateWhitelist is the set of characters a plate may contain.
const PlateWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PSMSingleWord is Tesseract page segmentation mode 8: treat the image as a
// single word.
const PSMSingleWord = 8

// Recognizer turns an image of text into a string.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Engine is a Recognizer that can also report on its own availability.
type Engine interface {
	Recognizer
	Info() Info
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
}

// Options configures a Tesseract backend.
type Options struct {
	// Command is the path of a tesseract executable. When set, the CLI
	// backend is used instead of libtesseract.
	Command string

	// TessdataPrefix is the directory holding *.traineddata files.
	// Empty means Tesseract's built-in search path.
	TessdataPrefix string

	// Language is the Tesseract language code. Defaults to "eng".
	Language string

	// Whitelist restricts the characters Tesseract may output.
	Whitelist string

	// PageSegMode is the Tesseract page segmentation mode.
	PageSegMode int
}

// DefaultOptions returns the plate reading configuration: English, A-Z0-9
// and single-word segmentation.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		Whitelist:   PlateWhitelist,
		PageSegMode: PSMSingleWord,
	}
}

// New returns the backend selected by opts: the CLI backend when a command
// is configured, libtesseract otherwise. Zero fields fall back to
// DefaultOptions.
func New(opts Options) Engine {
	opts = opts.withDefaults()
	if opts.Command != "" {
		return NewCommand(opts)
	}
	return NewTesseract(opts)
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Language == "" {
		o.Language = def.Language
	}
	if o.Whitelist == "" {
		o.Whitelist = def.Whitelist
	}
	if o.PageSegMode == 0 {
		o.PageSegMode = def.PageSegMode
	}
	return o
}

// encodePNG serializes img losslessly for handing to Tesseract.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
