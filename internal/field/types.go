// Package field defines the form-field model produced by the estimation
// and snapping pipeline.
package field

import (
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// Type identifies the kind of fillable field. It is a closed set so that
// the expansion and snapping switch logic stays exhaustive; an unknown
// string coming out of the estimator is mapped to TypeText at the parse
// boundary, never inside the pipeline.
type Type string

const (
	TypeText         Type = "text"
	TypeTextarea     Type = "textarea"
	TypeCheckbox     Type = "checkbox"
	TypeRadio        Type = "radio"
	TypeDate         Type = "date"
	TypeSignature    Type = "signature"
	TypeInitials     Type = "initials"
	TypeCircleChoice Type = "circle_choice"

	// Compound types exist only before expansion. The field-type
	// processors replace them with atomic fields.
	TypeTable      Type = "table"
	TypeLinkedDate Type = "linkedDate"
	TypeLinkedText Type = "linkedText"
)

// Valid reports whether t is one of the known field types.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeCheckbox, TypeRadio, TypeDate,
		TypeSignature, TypeInitials, TypeCircleChoice,
		TypeTable, TypeLinkedDate, TypeLinkedText:
		return true
	}
	return false
}

// Compound reports whether t must be expanded before snapping.
func (t Type) Compound() bool {
	return t == TypeTable || t == TypeLinkedDate || t == TypeLinkedText
}

// Boxy reports whether the field is drawn as an enclosed box rather than
// a writing line, which selects rectangle-based snapping.
func (t Type) Boxy() bool {
	return t == TypeCheckbox || t == TypeRadio || t == TypeTextarea
}

// Underline reports whether the field's writing area is anchored to a
// printed rule or label baseline.
func (t Type) Underline() bool {
	return t == TypeText || t == TypeDate || t == TypeInitials
}

// ParseType maps an estimator-provided type string to a Type, defaulting
// to TypeText for anything unrecognized.
func ParseType(s string) Type {
	t := Type(s)
	if t.Valid() {
		return t
	}
	return TypeText
}

// DatePart tags a date segment as day, month, four-digit year or
// two-digit year.
type DatePart string

const (
	DatePartDay       DatePart = "day"
	DatePartMonth     DatePart = "month"
	DatePartYear      DatePart = "year"
	DatePartYearShort DatePart = "year2"
)

// DateSegment is one sub-box of a linked date field.
type DateSegment struct {
	Part        DatePart             `json:"part"`
	Coordinates geometry.Coordinates `json:"coordinates"`
}

// Segment is one rectangle of a multi-line linked text area. Segments
// are ordered reading-wise and together form one logical input.
type Segment struct {
	Coordinates geometry.Coordinates `json:"coordinates"`
}

// ChoiceOption is a single option of a circle-choice field, with its own
// position on the page.
type ChoiceOption struct {
	Label       string               `json:"label"`
	Coordinates geometry.Coordinates `json:"coordinates"`
}

// TableConfig is the compact description of a grid field before it is
// expanded into per-cell fields.
type TableConfig struct {
	ColumnHeaders []string `json:"columnHeaders"`
	DataRows      int      `json:"dataRows"`
	// ColumnPositions optionally gives explicit column boundary
	// percentages relative to the table width (0 and 100 included).
	ColumnPositions []float64 `json:"columnPositions,omitempty"`
	// RowHeights optionally gives explicit per-row height percentages
	// relative to the table height.
	RowHeights  []float64             `json:"rowHeights,omitempty"`
	Coordinates *geometry.Coordinates `json:"coordinates,omitempty"`
}

// Field is a single form field. Before expansion it may carry a
// TableConfig or linked segments; after expansion every field is atomic
// and the compound extras are resolved into plain coordinates.
type Field struct {
	Label       string               `json:"label"`
	Type        Type                 `json:"fieldType"`
	Coordinates geometry.Coordinates `json:"coordinates"`
	GroupLabel  string               `json:"groupLabel,omitempty"`

	Options      []ChoiceOption `json:"options,omitempty"`
	DateSegments []DateSegment  `json:"dateSegments,omitempty"`
	Segments     []Segment      `json:"segments,omitempty"`
	TableConfig  *TableConfig   `json:"tableConfig,omitempty"`

	// FromTable marks fields produced by table expansion. It affects
	// downstream labeling and grouping, not snapping policy.
	FromTable bool `json:"fromTable,omitempty"`

	// Index is the document-wide presentation order, assigned after all
	// pages have completed.
	Index int `json:"index"`
	Page  int `json:"page"`
}

// CoordinateRefs returns pointers to every coordinate object reachable
// from f, including nested segments, options and table configuration.
// The scale normalizer walks this full set; missing a nested coordinate
// would let an out-of-range value hide from the detector.
func (f *Field) CoordinateRefs() []*geometry.Coordinates {
	refs := []*geometry.Coordinates{&f.Coordinates}
	for i := range f.Options {
		refs = append(refs, &f.Options[i].Coordinates)
	}
	for i := range f.DateSegments {
		refs = append(refs, &f.DateSegments[i].Coordinates)
	}
	for i := range f.Segments {
		refs = append(refs, &f.Segments[i].Coordinates)
	}
	if f.TableConfig != nil && f.TableConfig.Coordinates != nil {
		refs = append(refs, f.TableConfig.Coordinates)
	}
	return refs
}
