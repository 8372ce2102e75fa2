// Package estimate produces the initial, frequently imprecise field
// position estimates that the snapping pipeline reconciles against the
// page's own geometry. The only production implementation calls a vision
// model; tests substitute the interface.
package estimate

import (
	"context"

	"github.com/fieldsnap/fieldsnap/internal/field"
)

// PageImage is a rendered page handed to the estimator.
type PageImage struct {
	Data     []byte
	MIMEType string
}

// Estimator returns raw field estimates for one rendered page. Estimates
// use percentage coordinates but are not trusted: they may be mis-scaled
// or offset, which downstream normalization and snapping correct.
type Estimator interface {
	EstimateFields(ctx context.Context, img PageImage, pageNum int) ([]field.Field, error)
}
