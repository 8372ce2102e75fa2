package snap

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// Processor expands compound field descriptions (tables, linked dates,
// linked text areas) into the atomic fields the snapper operates on, and
// applies the per-type coordinate fixups that belong to expansion.
type Processor struct {
	opts   Options
	logger *log.Logger
}

// NewProcessor creates a field-type processor. A nil logger disables
// logging.
func NewProcessor(opts Options, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Processor{opts: opts, logger: logger}
}

// Process transforms raw fields into zero or more atomic fields each.
// Structurally invalid compound fields (a table without configuration)
// are dropped with a warning rather than expanded from guessed structure.
// Checkbox and radio heights are recomputed last so the fields render as
// visual squares at the page's true aspect ratio.
func (p *Processor) Process(fields []field.Field, geom *geometry.PageGeometry) []field.Field {
	var out []field.Field
	for i := range fields {
		f := fields[i]
		switch f.Type {
		case field.TypeTable:
			out = append(out, p.expandTable(f, geom)...)
		case field.TypeLinkedDate:
			out = append(out, p.expandLinkedDate(f))
		case field.TypeLinkedText:
			out = append(out, p.expandLinkedText(f))
		default:
			out = append(out, f)
		}
	}

	if geom != nil && geom.AspectRatio > 0 {
		for i := range out {
			if out[i].Type == field.TypeCheckbox || out[i].Type == field.TypeRadio {
				out[i].Coordinates.Height = out[i].Coordinates.Width / geom.AspectRatio
			}
		}
	}
	return out
}

// expandTable turns a table definition into one text field per cell.
// Column boundaries default to uniform spacing and are snapped to
// vertical vector lines when the page provides them.
func (p *Processor) expandTable(f field.Field, geom *geometry.PageGeometry) []field.Field {
	cfg := f.TableConfig
	if cfg == nil || cfg.Coordinates == nil || len(cfg.ColumnHeaders) < 1 || cfg.DataRows < 1 {
		p.logger.Warn("dropping table field without usable configuration", "label", f.Label)
		return nil
	}

	table := *cfg.Coordinates
	numCols := len(cfg.ColumnHeaders)

	boundaries := columnBoundaries(table, cfg.ColumnPositions, numCols)
	if geom != nil {
		boundaries = p.snapColumnBoundaries(boundaries, table, geom)
		// The outer box follows the snapped edges.
		table.Left = boundaries[0]
		table.Width = boundaries[len(boundaries)-1] - boundaries[0]
	}

	rowTops := rowBoundaries(table, cfg.RowHeights, cfg.DataRows)

	group := f.GroupLabel
	if group == "" {
		group = f.Label
	}

	fields := make([]field.Field, 0, numCols*cfg.DataRows)
	for row := 0; row < cfg.DataRows; row++ {
		for col := 0; col < numCols; col++ {
			fields = append(fields, field.Field{
				Label: fmt.Sprintf("%s - Row %d", cfg.ColumnHeaders[col], row+1),
				Type:  field.TypeText,
				Coordinates: geometry.Coordinates{
					Left:   boundaries[col],
					Top:    rowTops[row],
					Width:  boundaries[col+1] - boundaries[col],
					Height: rowTops[row+1] - rowTops[row],
				},
				GroupLabel: group,
				FromTable:  true,
				Page:       f.Page,
			})
		}
	}
	return fields
}

// columnBoundaries returns numCols+1 absolute x positions. Explicit
// positions are given as percentages of the table width; anything else
// gets uniform spacing.
func columnBoundaries(table geometry.Coordinates, positions []float64, numCols int) []float64 {
	out := make([]float64, numCols+1)
	if len(positions) == numCols+1 {
		for i, p := range positions {
			out[i] = table.Left + p/100*table.Width
		}
		return out
	}
	for i := 0; i <= numCols; i++ {
		out[i] = table.Left + float64(i)/float64(numCols)*table.Width
	}
	return out
}

// snapColumnBoundaries moves estimated boundaries onto clustered vertical
// vector lines that actually cross the table, leaving boundaries without
// a close-enough line untouched.
func (p *Processor) snapColumnBoundaries(
	boundaries []float64,
	table geometry.Coordinates,
	geom *geometry.PageGeometry,
) []float64 {
	var candidates []float64
	for _, l := range geom.VerticalVectorLines() {
		if l.SpanEnd() <= table.Top || l.SpanStart() >= table.Bottom() {
			continue
		}
		x := l.Position()
		if x < table.Left-p.opts.ColumnMargin || x > table.Right()+p.opts.ColumnMargin {
			continue
		}
		candidates = append(candidates, x)
	}
	if len(candidates) == 0 {
		return boundaries
	}

	clusters := geometry.ClusterPositions(candidates, p.opts.ClusterTolerance)

	out := make([]float64, len(boundaries))
	copy(out, boundaries)
	for i, b := range out {
		if pos, dist, ok := geometry.NearestCluster(clusters, b); ok && dist <= p.opts.ColumnSnapDistance {
			out[i] = pos
		}
	}
	return out
}

// rowBoundaries returns dataRows+1 absolute y positions.
func rowBoundaries(table geometry.Coordinates, heights []float64, dataRows int) []float64 {
	out := make([]float64, dataRows+1)
	out[0] = table.Top
	if len(heights) == dataRows {
		for i, h := range heights {
			out[i+1] = out[i] + h/100*table.Height
		}
		return out
	}
	rowH := table.Height / float64(dataRows)
	for i := 1; i <= dataRows; i++ {
		out[i] = table.Top + float64(i)*rowH
	}
	return out
}

// expandLinkedDate resolves a linked date into a date field whose outer
// box is the envelope of its segments. With no segments it degrades to
// an ordinary single-box date field; partial information beats none.
func (p *Processor) expandLinkedDate(f field.Field) field.Field {
	f.Type = field.TypeDate
	if len(f.DateSegments) == 0 {
		return f
	}
	env := f.DateSegments[0].Coordinates
	for _, s := range f.DateSegments[1:] {
		env = env.Union(s.Coordinates)
	}
	f.Coordinates = env
	return f
}

// expandLinkedText resolves a linked text area into a text field whose
// outer box is the envelope of its segments. With no segments the
// field's own box becomes its single implicit segment.
func (p *Processor) expandLinkedText(f field.Field) field.Field {
	f.Type = field.TypeText
	if len(f.Segments) == 0 {
		f.Segments = []field.Segment{{Coordinates: f.Coordinates}}
		return f
	}
	env := f.Segments[0].Coordinates
	for _, s := range f.Segments[1:] {
		env = env.Union(s.Coordinates)
	}
	f.Coordinates = env
	return f
}
