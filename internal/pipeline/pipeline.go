// Package pipeline wires estimation, geometry preparation and snapping
// into per-page runs and fans them out across a document.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/fieldsnap/fieldsnap/internal/estimate"
	"github.com/fieldsnap/fieldsnap/internal/extract"
	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
	"github.com/fieldsnap/fieldsnap/internal/snap"
)

// PageInput carries everything needed to process one page.
type PageInput struct {
	PageNumber int // 1-based

	// Image is the decoded rendered page, used for CV line detection
	// and the true aspect ratio. May be nil for PDF-only flows.
	Image image.Image

	// ImageData/ImageMIME is the encoded rendering sent to the
	// estimator.
	ImageData []byte
	ImageMIME string

	// OcrWords are word boxes from an external OCR service, optional.
	// Native PDF text words are extracted and merged in automatically.
	OcrWords []geometry.OcrWord
}

// PageResult is the outcome for a single page.
type PageResult struct {
	Page           int           `json:"page"`
	Fields         []field.Field `json:"fields"`
	Stats          snap.Stats    `json:"stats"`
	ScaleCorrected bool          `json:"scaleCorrected,omitempty"`
	Degraded       bool          `json:"degraded,omitempty"`
}

// DocumentResult aggregates all pages in order.
type DocumentResult struct {
	Pages       []PageResult `json:"pages"`
	TotalFields int          `json:"totalFields"`
}

// Service runs the extraction pipeline. All collaborators are injected;
// nothing is lazily initialized module state.
type Service struct {
	estimator estimate.Estimator
	preparer  *extract.Preparer
	opts      snap.Options
	retries   int
	logger    *log.Logger
}

// NewService creates a pipeline service. retries is how many sequential
// re-attempts a failed page gets after the parallel wave (at least 0).
func NewService(estimator estimate.Estimator, opts snap.Options, retries int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if retries < 0 {
		retries = 0
	}
	return &Service{
		estimator: estimator,
		preparer:  extract.NewPreparer(logger),
		opts:      opts,
		retries:   retries,
		logger:    logger,
	}
}

// ProcessPage runs the full per-page pipeline: estimate and prepare
// geometry concurrently, then normalize, filter, expand, snap and
// deduplicate. The estimator call is the only unbounded-latency step;
// its failure fails the attempt so the document level can retry.
func (s *Service) ProcessPage(ctx context.Context, pdfData []byte, in PageInput) (*PageResult, error) {
	var (
		fields  []field.Field
		estErr  error
		geom    *geometry.PageGeometry
		widgets []geometry.AcroFormWidget
		words   []geometry.OcrWord
	)

	// Geometry preparation and the model call are independent; run them
	// as two joined tasks. Geometry prep usually finishes long before
	// the model responds.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fields, estErr = s.estimator.EstimateFields(ctx, estimate.PageImage{
			Data:     in.ImageData,
			MIMEType: in.ImageMIME,
		}, in.PageNumber)
	}()
	go func() {
		defer wg.Done()
		geom = s.preparer.Prepare(in.Image, pdfData, in.PageNumber)
		widgets, words = s.collectDocumentEvidence(pdfData, in)
	}()
	wg.Wait()

	if estErr != nil {
		return nil, fmt.Errorf("page %d: field estimation failed: %w", in.PageNumber, estErr)
	}

	result := &PageResult{Page: in.PageNumber}

	fields, corr := snap.NormalizeScale(fields, s.opts)
	result.ScaleCorrected = corr.Corrected
	if corr.Corrected {
		s.logger.Info("rescaled estimator output",
			"page", in.PageNumber, "xScale", corr.XScale, "yScale", corr.YScale)
	}

	fields, prefilled := snap.PrefillFilter(fields, words, s.opts, s.logger)

	processor := snap.NewProcessor(s.opts, s.logger)
	fields = processor.Process(fields, geom)

	snapper := snap.NewSnapper(s.opts, s.logger)
	stats := snapper.Snap(fields, geom, widgets, words)
	stats.Prefilled = prefilled

	fields, deduped := snap.Deduplicate(fields, s.opts)
	stats.Deduped = deduped

	result.Fields = fields
	result.Stats = stats
	return result, nil
}

// collectDocumentEvidence gathers AcroForm widgets and word boxes for
// the page. Every signal is optional: extraction errors degrade to
// empty evidence with a logged warning.
func (s *Service) collectDocumentEvidence(pdfData []byte, in PageInput) ([]geometry.AcroFormWidget, []geometry.OcrWord) {
	words := in.OcrWords

	if len(pdfData) == 0 {
		return nil, words
	}

	widgets, err := extract.AcroFormWidgets(pdfData, in.PageNumber)
	if err != nil {
		s.logger.Warn("AcroForm extraction failed, continuing without widgets",
			"page", in.PageNumber, "err", err)
		widgets = nil
	}

	if pageW, pageH, err := extract.PageSize(pdfData, in.PageNumber); err == nil {
		native, err := extract.WordBoxes(pdfData, in.PageNumber, pageW, pageH)
		if err != nil {
			s.logger.Warn("native word extraction failed, continuing without PDF text",
				"page", in.PageNumber, "err", err)
		} else {
			words = append(words, native...)
		}
	}
	return widgets, words
}

// ExtractDocument processes every page concurrently, retries failed
// pages sequentially after the parallel wave, reindexes field order
// globally and returns per-page results. A page that fails every
// attempt contributes an empty field list; partial success is a valid
// outcome, not an error.
func (s *Service) ExtractDocument(ctx context.Context, pdfData []byte, pages []PageInput) (*DocumentResult, error) {
	if len(pages) == 0 {
		return &DocumentResult{}, nil
	}

	results := make([]*PageResult, len(pages))
	errs := make([]error, len(pages))

	// Pages share no mutable state: each slot is written by exactly one
	// goroutine.
	var wg sync.WaitGroup
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.ProcessPage(ctx, pdfData, pages[i])
		}(i)
	}
	wg.Wait()

	// Sequential retry wave for the failures.
	for i := range pages {
		if errs[i] == nil {
			continue
		}
		s.logger.Warn("page failed, retrying", "page", pages[i].PageNumber, "err", errs[i])
		for attempt := 0; attempt < s.retries && errs[i] != nil; attempt++ {
			results[i], errs[i] = s.ProcessPage(ctx, pdfData, pages[i])
		}
		if errs[i] != nil {
			s.logger.Error("page failed after retry, returning empty field list",
				"page", pages[i].PageNumber, "err", errs[i])
			results[i] = &PageResult{Page: pages[i].PageNumber, Degraded: true}
		}
	}

	doc := &DocumentResult{Pages: make([]PageResult, 0, len(results))}
	index := 0
	for _, r := range results {
		for j := range r.Fields {
			r.Fields[j].Index = index
			index++
		}
		doc.Pages = append(doc.Pages, *r)
	}
	doc.TotalFields = index
	return doc, nil
}
