package estimate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// rawField mirrors the estimator's JSON. Unknown field types and parts
// are mapped to safe defaults here, at the parse boundary, so the
// pipeline only ever sees the closed type set.
type rawField struct {
	Label       string               `json:"label"`
	FieldType   string               `json:"fieldType"`
	Coordinates geometry.Coordinates `json:"coordinates"`
	GroupLabel  string               `json:"groupLabel"`

	Options []struct {
		Label       string               `json:"label"`
		Coordinates geometry.Coordinates `json:"coordinates"`
	} `json:"options"`
	DateSegments []struct {
		Part        string               `json:"part"`
		Coordinates geometry.Coordinates `json:"coordinates"`
	} `json:"dateSegments"`
	Segments []struct {
		Coordinates geometry.Coordinates `json:"coordinates"`
	} `json:"segments"`
	TableConfig *struct {
		ColumnHeaders   []string              `json:"columnHeaders"`
		DataRows        int                   `json:"dataRows"`
		ColumnPositions []float64             `json:"columnPositions"`
		RowHeights      []float64             `json:"rowHeights"`
		Coordinates     *geometry.Coordinates `json:"coordinates"`
	} `json:"tableConfig"`
}

type rawResponse struct {
	Fields []rawField `json:"fields"`
}

// ParseFields decodes an estimator response into fields for the given
// 1-based page. Code fences around the JSON are tolerated; models add
// them even when told not to.
func ParseFields(data []byte, pageNum int) ([]field.Field, error) {
	text := stripCodeFences(strings.TrimSpace(string(data)))

	var resp rawResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		// Some responses are a bare array rather than the wrapper object.
		var arr []rawField
		if err2 := json.Unmarshal([]byte(text), &arr); err2 != nil {
			return nil, fmt.Errorf("bad field JSON: %w", err)
		}
		resp.Fields = arr
	}

	fields := make([]field.Field, 0, len(resp.Fields))
	for _, r := range resp.Fields {
		fields = append(fields, convertField(r, pageNum))
	}
	return fields, nil
}

func convertField(r rawField, pageNum int) field.Field {
	f := field.Field{
		Label:       strings.TrimSpace(r.Label),
		Type:        field.ParseType(r.FieldType),
		Coordinates: r.Coordinates,
		GroupLabel:  strings.TrimSpace(r.GroupLabel),
		Page:        pageNum,
	}
	for _, o := range r.Options {
		f.Options = append(f.Options, field.ChoiceOption{Label: o.Label, Coordinates: o.Coordinates})
	}
	for _, s := range r.DateSegments {
		f.DateSegments = append(f.DateSegments, field.DateSegment{
			Part:        parseDatePart(s.Part),
			Coordinates: s.Coordinates,
		})
	}
	for _, s := range r.Segments {
		f.Segments = append(f.Segments, field.Segment{Coordinates: s.Coordinates})
	}
	if r.TableConfig != nil {
		f.TableConfig = &field.TableConfig{
			ColumnHeaders:   r.TableConfig.ColumnHeaders,
			DataRows:        r.TableConfig.DataRows,
			ColumnPositions: r.TableConfig.ColumnPositions,
			RowHeights:      r.TableConfig.RowHeights,
			Coordinates:     r.TableConfig.Coordinates,
		}
		if f.TableConfig.Coordinates == nil && f.Coordinates.Area() > 0 {
			// Tables sometimes carry their box only at the field level.
			c := f.Coordinates
			f.TableConfig.Coordinates = &c
		}
	}
	return f
}

func parseDatePart(s string) field.DatePart {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "dd":
		return field.DatePartDay
	case "month", "mm":
		return field.DatePartMonth
	case "year2", "yy", "2-digit-year":
		return field.DatePartYearShort
	default:
		return field.DatePartYear
	}
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
