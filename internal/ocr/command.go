package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Command recognizes text by running a tesseract executable, reading the
// image from stdin and the text from stdout.
type Command struct {
	path string
	opts Options
}

// NewCommand creates a CLI backend for the executable in opts.Command.
func NewCommand(opts Options) *Command {
	opts = opts.withDefaults()
	return &Command{path: opts.Command, opts: opts}
}

// Args returns the command line arguments passed to tesseract.
func (c *Command) Args() []string {
	return []string{
		"stdin", "stdout",
		"-l", c.opts.Language,
		"--psm", strconv.Itoa(c.opts.PageSegMode),
		"-c", "tessedit_char_whitelist=" + c.opts.Whitelist,
	}
}

// Recognize runs tesseract on img. The process is killed when ctx is done.
func (c *Command) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, c.path, c.Args()...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Env = c.env()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Info runs "tesseract --version" and reports the first line.
func (c *Command) Info() Info {
	cmd := exec.Command(c.path, "--version")
	cmd.Env = c.env()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Info{
			Available: false,
			Error:     err.Error(),
			Backend:   "tesseract-cli",
		}
	}

	version, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return Info{
		Available: true,
		Version:   strings.TrimSpace(strings.TrimPrefix(version, "tesseract")),
		Backend:   "tesseract-cli",
	}
}

func (c *Command) env() []string {
	env := os.Environ()
	if c.opts.TessdataPrefix != "" {
		env = append(env, "TESSDATA_PREFIX="+c.opts.TessdataPrefix)
	}
	return env
}
