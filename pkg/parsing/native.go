package parsing

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeEngine extracts text with a pure Go PDF reader.
type NativeEngine struct{}

// NewNativeEngine returns a new NativeEngine.
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{}
}

// Name returns the engine identifier.
func (e *NativeEngine) Name() string {
	return EngineNative
}

// PageCount returns the number of pages of the file.
func (e *NativeEngine) PageCount(ctx context.Context, file []byte) (int, error) {
	r, err := open(file)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// ExtractText returns the plain text of one page.
func (e *NativeEngine) ExtractText(ctx context.Context, file []byte, pageNumber int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r, err := open(file)
	if err != nil {
		return "", err
	}
	if pageNumber < 1 || pageNumber > r.NumPage() {
		return "", ErrPageOutOfRange
	}

	page := r.Page(pageNumber)
	if page.V.IsNull() {
		return "", nil
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("error reading page %d: %w", pageNumber, err)
	}
	return strings.TrimSpace(text), nil
}

func open(file []byte) (*pdf.Reader, error) {
	if len(file) == 0 {
		return nil, fmt.Errorf("empty PDF content")
	}
	r, err := pdf.NewReader(bytes.NewReader(file), int64(len(file)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return r, nil
}
