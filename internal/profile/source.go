// Package profile loads site layout profiles from the management portal
// and caches them with an epoch stamp so derived building configurations
// can be invalidated as a unit.
package profile

import (
	"context"
	"errors"

	"github.com/unit-selector/app/models"
)

// ErrNoProfile reports that a source has no profile for the requested
// site. Callers fall back to models.DefaultProfile.
var ErrNoProfile = errors.New("no profile for site")

// Source supplies the layout profile for a site.
type Source interface {
	Fetch(ctx context.Context, site models.SiteRef) (models.SiteProfile, error)
}

// StaticSource serves one fixed profile for every site. Used when no
// portal endpoint or profile file is configured.
type StaticSource struct {
	profile models.SiteProfile
}

// NewStaticSource returns a source that always serves p.
func NewStaticSource(p models.SiteProfile) *StaticSource {
	return &StaticSource{profile: p.Sanitize()}
}

func (s *StaticSource) Fetch(ctx context.Context, site models.SiteRef) (models.SiteProfile, error) {
	return s.profile, nil
}
