// Package parsing extracts the text of document version pages and stores it
// as page content.
package parsing

import (
	"context"
	"errors"
	"fmt"
)

// ErrPageOutOfRange is returned when a page number is not in the file.
var ErrPageOutOfRange = errors.New("page number out of range")

// Engine extracts text from PDF files one page at a time.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// PageCount returns the number of pages of the file.
	PageCount(ctx context.Context, file []byte) (int, error)

	// ExtractText returns the text of one page. Page numbers start at 1.
	ExtractText(ctx context.Context, file []byte, pageNumber int) (string, error)
}

// Engine names.
const (
	EnginePoppler = "poppler"
	EngineNative  = "native"
)

// Config contains engine configuration.
type Config struct {
	// Engine is "poppler" or "native".
	Engine string `hcl:"engine,optional"`

	// PdftotextPath is the pdftotext binary used by the poppler engine.
	PdftotextPath string `hcl:"pdftotext_path,optional"`

	// PdfinfoPath is the pdfinfo binary used by the poppler engine.
	PdfinfoPath string `hcl:"pdfinfo_path,optional"`
}

// NewEngine returns the engine named in cfg.
func NewEngine(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case EnginePoppler:
		return NewPopplerEngine(cfg.PdftotextPath, cfg.PdfinfoPath), nil
	case EngineNative, "":
		return NewNativeEngine(), nil
	default:
		return nil, fmt.Errorf("unknown parser engine: %s", cfg.Engine)
	}
}
