// Package extract derives geometric evidence from a page: AcroForm widget
// rectangles, vector lines and rectangles from the content stream,
// positioned word boxes from native PDF text, and line segments detected
// in the rendered raster. Every extractor converts into percentage
// coordinate space before returning.
package extract

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// readContext parses PDF bytes into a pdfcpu context with relaxed
// validation, matching how malformed real-world forms are tolerated.
func readContext(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages in the document.
func PageCount(data []byte) (int, error) {
	ctx, err := readContext(data)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// PageSize returns the media box dimensions of a 1-based page, in points.
func PageSize(data []byte, pageNum int) (width, height float64, err error) {
	ctx, err := readContext(data)
	if err != nil {
		return 0, 0, err
	}
	return pageSizeFromContext(ctx, pageNum)
}

func pageSizeFromContext(ctx *model.Context, pageNum int) (float64, float64, error) {
	dims, err := ctx.PageDims()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if pageNum < 1 || pageNum > len(dims) {
		return 0, 0, fmt.Errorf("page %d out of range (document has %d pages)", pageNum, len(dims))
	}
	d := dims[pageNum-1]
	if d.Width <= 0 || d.Height <= 0 {
		return 0, 0, fmt.Errorf("page %d has degenerate dimensions %vx%v", pageNum, d.Width, d.Height)
	}
	return d.Width, d.Height, nil
}

// AcroFormWidgets extracts the widget annotations of a 1-based page as
// named rectangles in percentage space. Pages without an embedded form
// yield an empty slice, not an error.
func AcroFormWidgets(data []byte, pageNum int) ([]geometry.AcroFormWidget, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}

	pageW, pageH, err := pageSizeFromContext(ctx, pageNum)
	if err != nil {
		return nil, err
	}

	pageDict, _, _, err := ctx.PageDict(pageNum, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve page %d: %w", pageNum, err)
	}
	if pageDict == nil {
		return nil, nil
	}

	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil, nil
	}
	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Annots: %w", err)
	}

	var widgets []geometry.AcroFormWidget
	for i, annotRef := range annots {
		w, ok := widgetFromAnnotation(ctx, annotRef, i, pageNum, pageW, pageH)
		if ok {
			widgets = append(widgets, w)
		}
	}
	return widgets, nil
}

func widgetFromAnnotation(
	ctx *model.Context,
	annotRef types.Object,
	index, pageNum int,
	pageW, pageH float64,
) (geometry.AcroFormWidget, bool) {
	var zero geometry.AcroFormWidget

	annot, err := ctx.DereferenceDict(annotRef)
	if err != nil || annot == nil {
		return zero, false
	}

	if sub, err := ctx.DereferenceName(annot["Subtype"], model.V10, nil); err != nil || sub != "Widget" {
		return zero, false
	}

	rectObj, found := annot.Find("Rect")
	if !found {
		return zero, false
	}
	rectArr, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArr) != 4 {
		return zero, false
	}
	coords := make([]float64, 4)
	for i, c := range rectArr {
		if f, err := ctx.DereferenceNumber(c); err == nil {
			coords[i] = f
		}
	}

	w := geometry.AcroFormWidget{
		Name:        widgetName(ctx, annot, index),
		FieldType:   widgetType(ctx, annot),
		Page:        pageNum,
		Coordinates: rectToPercent(coords[0], coords[1], coords[2], coords[3], pageW, pageH),
	}
	if w.Coordinates.Width <= 0 || w.Coordinates.Height <= 0 {
		return zero, false
	}
	return w, true
}

// widgetName resolves the partial field name, walking up Parent links
// when the widget itself is unnamed.
func widgetName(ctx *model.Context, dict types.Dict, index int) string {
	for depth := 0; dict != nil && depth < 8; depth++ {
		if nameObj, found := dict.Find("T"); found {
			if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && name != "" {
				return name
			}
		}
		parentObj, found := dict.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		dict = parent
	}
	return fmt.Sprintf("widget_%d", index)
}

// widgetType maps the FT entry to a coarse field kind, checking parents
// for inherited types.
func widgetType(ctx *model.Context, dict types.Dict) string {
	for depth := 0; dict != nil && depth < 8; depth++ {
		if ftObj, found := dict.Find("FT"); found {
			ft, err := ctx.DereferenceName(ftObj, model.V10, nil)
			if err != nil {
				return ""
			}
			switch ft {
			case "Btn":
				if flags, err := ctx.DereferenceInteger(dict["Ff"]); err == nil && flags != nil && (*flags&(1<<15)) != 0 {
					return "radio"
				}
				return "checkbox"
			case "Tx":
				return "text"
			case "Ch":
				return "choice"
			case "Sig":
				return "signature"
			}
			return ""
		}
		parentObj, found := dict.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		dict = parent
	}
	return ""
}

// rectToPercent converts a PDF rectangle (origin bottom-left, y up) to
// percentage space (origin top-left, y down).
func rectToPercent(x1, y1, x2, y2, pageW, pageH float64) geometry.Coordinates {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return geometry.Coordinates{
		Left:   x1 / pageW * 100,
		Top:    (pageH - y2) / pageH * 100,
		Width:  (x2 - x1) / pageW * 100,
		Height: (y2 - y1) / pageH * 100,
	}
}
