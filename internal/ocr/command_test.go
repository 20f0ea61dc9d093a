package ocr

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeScript creates an executable shell script standing in for tesseract.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestCommand_Args(t *testing.T) {
	cmd := NewCommand(Options{Command: "tesseract"})

	got := strings.Join(cmd.Args(), " ")
	want := "stdin stdout -l eng --psm 8 -c tessedit_char_whitelist=" + PlateWhitelist
	if got != want {
		t.Errorf("args:\n got %q\nwant %q", got, want)
	}
}

func TestCommand_Recognize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.png")
	script := writeScript(t, `cat > "`+input+`"
echo "ABC123"`)

	img := image.NewGray(image.Rect(0, 0, 60, 20))
	img.SetGray(5, 5, color.Gray{200})

	got, err := NewCommand(Options{Command: script}).Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if got != "ABC123\n" {
		t.Errorf("text: got %q, want %q", got, "ABC123\n")
	}

	// The image must reach tesseract as a PNG on stdin
	f, err := os.Open(input)
	if err != nil {
		t.Fatalf("script did not receive input: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("stdin was not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 60 || decoded.Bounds().Dy() != 20 {
		t.Errorf("dimensions: got %v, want 60x20", decoded.Bounds())
	}
}

func TestCommand_PassesTessdataPrefix(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
echo "$TESSDATA_PREFIX"`)

	got, err := NewCommand(Options{Command: script, TessdataPrefix: "/opt/tessdata"}).
		Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if strings.TrimSpace(got) != "/opt/tessdata" {
		t.Errorf("TESSDATA_PREFIX: got %q", got)
	}
}

func TestCommand_Failure(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
echo "Error opening data file" >&2
exit 1`)

	_, err := NewCommand(Options{Command: script}).
		Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Error opening data file") {
		t.Errorf("error should include stderr, got %v", err)
	}
}

func TestCommand_ContextTimeout(t *testing.T) {
	script := writeScript(t, `exec sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewCommand(Options{Command: script}).
		Recognize(ctx, image.NewGray(image.Rect(0, 0, 4, 4)))
	if err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("process was not killed on timeout")
	}
}

func TestCommand_Info(t *testing.T) {
	script := writeScript(t, `echo "tesseract 5.3.0"
echo " leptonica-1.82.0"`)

	info := NewCommand(Options{Command: script}).Info()
	if !info.Available {
		t.Fatalf("expected available, got error %q", info.Error)
	}
	if info.Version != "5.3.0" {
		t.Errorf("Version: got %q, want 5.3.0", info.Version)
	}
	if info.Backend != "tesseract-cli" {
		t.Errorf("Backend: got %q", info.Backend)
	}
}

func TestCommand_InfoMissingBinary(t *testing.T) {
	info := NewCommand(Options{Command: filepath.Join(t.TempDir(), "missing")}).Info()
	if info.Available {
		t.Error("missing binary should not be available")
	}
	if info.Error == "" {
		t.Error("expected an error message")
	}
}
