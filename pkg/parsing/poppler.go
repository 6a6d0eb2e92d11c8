package parsing

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// PopplerEngine runs the poppler command line utilities.
type PopplerEngine struct {
	pdftotext string
	pdfinfo   string
}

// NewPopplerEngine returns a PopplerEngine using the given binaries. Empty
// paths are looked up on PATH.
func NewPopplerEngine(pdftotextPath, pdfinfoPath string) *PopplerEngine {
	if pdftotextPath == "" {
		pdftotextPath = "pdftotext"
	}
	if pdfinfoPath == "" {
		pdfinfoPath = "pdfinfo"
	}
	return &PopplerEngine{
		pdftotext: pdftotextPath,
		pdfinfo:   pdfinfoPath,
	}
}

// Name returns the engine identifier.
func (e *PopplerEngine) Name() string {
	return EnginePoppler
}

// PageCount runs pdfinfo and returns the "Pages:" value.
func (e *PopplerEngine) PageCount(ctx context.Context, file []byte) (int, error) {
	out, err := e.run(ctx, file, e.pdfinfo)
	if err != nil {
		return 0, err
	}
	return parsePdfinfoPages(out)
}

// ExtractText runs pdftotext on one page.
func (e *PopplerEngine) ExtractText(ctx context.Context, file []byte, pageNumber int) (string, error) {
	if pageNumber < 1 {
		return "", ErrPageOutOfRange
	}

	n := strconv.Itoa(pageNumber)
	out, err := e.run(ctx, file, e.pdftotext, "-f", n, "-l", n, "-enc", "UTF-8")
	if err != nil {
		return "", err
	}

	// pdftotext separates pages with a form feed.
	return strings.TrimSpace(strings.TrimRight(string(out), "\f")), nil
}

// run writes file to a temporary path and runs bin with args followed by the
// path. pdftotext additionally gets "-" to write to stdout.
func (e *PopplerEngine) run(ctx context.Context, file []byte, bin string, args ...string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "archivist-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(file); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("error writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("error closing temporary file: %w", err)
	}

	args = append(args, tmp.Name())
	if bin == e.pdftotext {
		args = append(args, "-")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func parsePdfinfoPages(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("invalid page count %q: %w", line, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("page count not found in pdfinfo output")
}
