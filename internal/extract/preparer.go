package extract

import (
	"image"
	"io"

	"github.com/charmbracelet/log"

	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// defaultAspectRatio is US Letter portrait, used only when neither a
// rendered image nor a parseable media box is available.
const defaultAspectRatio = 8.5 / 11.0

// Preparer assembles all geometric evidence for one page. It never fails
// outright: any extractor error degrades to empty evidence for that
// signal so the page can still be snapped using whatever remains.
type Preparer struct {
	logger *log.Logger
}

// NewPreparer creates a geometry preparer. A nil logger disables logging.
func NewPreparer(logger *log.Logger) *Preparer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Preparer{logger: logger}
}

// Prepare derives the page's geometry from the rendered image and the
// source PDF bytes. Either input may be absent: without PDF bytes the
// result is CV-only, without an image there are no CV lines and the
// aspect ratio comes from the media box.
func (p *Preparer) Prepare(img image.Image, pdfData []byte, pageNum int) *geometry.PageGeometry {
	geom := &geometry.PageGeometry{AspectRatio: defaultAspectRatio}

	if img != nil {
		b := img.Bounds()
		if b.Dx() > 0 && b.Dy() > 0 {
			geom.AspectRatio = float64(b.Dx()) / float64(b.Dy())
		}
		geom.CVLines = CVLines(img)
	}

	if len(pdfData) == 0 {
		return geom
	}

	if img == nil {
		if w, h, err := PageSize(pdfData, pageNum); err == nil {
			geom.AspectRatio = w / h
		} else {
			p.logger.Warn("could not determine page size, assuming letter",
				"page", pageNum, "err", err)
		}
	}

	lines, rects, err := VectorGeometry(pdfData, pageNum)
	if err != nil {
		// Malformed vector content falls back to CV/OCR-only snapping.
		p.logger.Warn("vector extraction failed, continuing without vector geometry",
			"page", pageNum, "err", err)
		return geom
	}
	geom.VectorLines = lines
	geom.VectorRects = rects
	return geom
}
