package model

import (
	"context"

	"github.com/forgo/odmapi/internal/odm"
)

// EntityLoader is the lookup hooks need to validate references.
type EntityLoader interface {
	GetByRef(ctx context.Context, ref string) (*odm.Entity, error)
}

// Exposures is the registration table of models with custom HTTP hooks.
// Models not listed here use odm.DefaultExposure.
func Exposures(loader EntityLoader) map[string]func(odm.DefaultExposure) odm.Exposure {
	return map[string]func(odm.DefaultExposure) odm.Exposure{
		ArticleModel: func(d odm.DefaultExposure) odm.Exposure { return &ArticleExposure{DefaultExposure: d} },
		CommentModel: func(d odm.DefaultExposure) odm.Exposure {
			return &CommentExposure{DefaultExposure: d, loader: loader}
		},
	}
}

// RegisterExposures installs the custom hooks into reg and returns the model
// names they were applied to.
func RegisterExposures(reg *odm.Registry, loader EntityLoader) []string {
	var applied []string
	for name, build := range Exposures(loader) {
		if reg.Hook(name, build) {
			applied = append(applied, name)
		}
	}
	return applied
}
