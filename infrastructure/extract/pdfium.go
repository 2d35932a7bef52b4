package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/helixml/dokit/domain/service"
)

const pdfiumAcquireTimeout = 30 * time.Second

// pdfiumSingleton holds the process-wide pdfium WebAssembly pool. Starting
// the wazero runtime is expensive, so all PdfiumExtractor instances share
// one pool.
var pdfiumSingleton struct {
	pool  pdfium.Pool
	mu    sync.Mutex
	ready bool
}

func pdfiumPool() (pdfium.Pool, error) {
	pdfiumSingleton.mu.Lock()
	defer pdfiumSingleton.mu.Unlock()

	if pdfiumSingleton.ready {
		return pdfiumSingleton.pool, nil
	}

	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("init pdfium pool: %w", err)
	}

	pdfiumSingleton.pool = pool
	pdfiumSingleton.ready = true
	return pool, nil
}

// PdfiumExtractor extracts PDF text with the pdfium library compiled to
// WebAssembly. Documents that pdfium cannot open, and a runtime that fails
// to initialize, degrade to the fallback extractor so PDF ingestion never
// depends on pdfium being usable.
type PdfiumExtractor struct {
	fallback service.TextExtractor
}

// NewPdfiumExtractor creates a PdfiumExtractor that degrades to fallback
// when pdfium cannot handle a document. fallback must not be nil.
func NewPdfiumExtractor(fallback service.TextExtractor) *PdfiumExtractor {
	return &PdfiumExtractor{fallback: fallback}
}

// Extract opens the document with pdfium and reads the text of every page.
// Pages that fail to render are skipped; a document with no readable text
// yields PDFPlaceholder.
func (e *PdfiumExtractor) Extract(ctx context.Context, data []byte) (service.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return service.Extraction{}, err
	}

	pool, err := pdfiumPool()
	if err != nil {
		return e.fallback.Extract(ctx, data)
	}

	instance, err := pool.GetInstance(pdfiumAcquireTimeout)
	if err != nil {
		return e.fallback.Extract(ctx, data)
	}
	defer func() { _ = instance.Close() }()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return e.fallback.Extract(ctx, data)
	}
	defer func() {
		_, _ = instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
	}()

	pages, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return e.fallback.Extract(ctx, data)
	}

	var parts []string
	for i := 0; i < pages.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return service.Extraction{}, err
		}
		pageText, textErr := instance.GetPageText(&requests.GetPageText{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i},
			},
		})
		if textErr != nil {
			continue
		}
		parts = append(parts, pageText.Text)
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		text = PDFPlaceholder
	}

	return service.NewExtraction(text, pages.PageCount), nil
}

var _ service.TextExtractor = (*PdfiumExtractor)(nil)
