// Package ocr reads the characters on a cropped licence plate using Tesseract.
//
// Two backends implement the same Engine interface:
//
//   - Tesseract links libtesseract through gosseract/v2. This is the default.
//   - Command runs an external tesseract executable, selected when
//     TESSERACT_CMD points at one. Useful when the binary and its training
//     data live outside the default search paths.
//
// Both restrict recognition to upper-case letters and digits and treat the
// image as a single word (page segmentation mode 8), which suits plate crops.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// English training data (eng.traineddata) is required. Set TESSDATA_PREFIX
// when it is not in the default location.
//
// # Concurrency
//
// gosseract clients are not safe for concurrent use, so Tesseract creates a
// client per call and closes it afterwards. Engines themselves hold only
// immutable options and may be shared between goroutines.
package ocr
