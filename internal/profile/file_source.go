package profile

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/unit-selector/app/models"
	"github.com/unit-selector/helpers/utils"
)

// fileDoc is the on-disk profile catalog, keyed by site key.
type fileDoc struct {
	Profiles map[string]fileProfile `yaml:"profiles"`
}

// fileProfile uses pointer fields so absent keys inherit the built-in
// defaults instead of zeroing them.
type fileProfile struct {
	BuildingStart         *int                    `yaml:"building_start"`
	BuildingCount         *int                    `yaml:"building_count"`
	DefaultLineCount      *int                    `yaml:"default_line_count"`
	DefaultMaxFloor       *int                    `yaml:"default_max_floor"`
	DefaultBasementFloors *int                    `yaml:"default_basement_floors"`
	BuildingOverrides     map[string]fileOverride `yaml:"building_overrides"`
}

type fileOverride struct {
	LineCount      *int           `yaml:"line_count"`
	MaxFloor       *int           `yaml:"max_floor"`
	BasementFloors *int           `yaml:"basement_floors"`
	LineMaxFloors  map[string]int `yaml:"line_max_floors"`
}

// FileSource serves site profiles from a YAML catalog. Intended for
// deployments without a portal endpoint and for local development.
type FileSource struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	profiles map[string]models.SiteProfile
}

// NewFileSource loads the catalog at path.
func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	fs := &FileSource{
		path:   path,
		logger: logger,
	}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the catalog from disk, replacing the served set.
func (f *FileSource) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read profile catalog: %w", err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse profile catalog: %w", err)
	}

	profiles := make(map[string]models.SiteProfile, len(doc.Profiles))
	for key, fp := range doc.Profiles {
		profiles[key] = fp.toProfile()
	}

	f.mu.Lock()
	f.profiles = profiles
	f.mu.Unlock()

	f.logger.Info("profile catalog loaded",
		zap.String("path", f.path),
		zap.Int("site_count", len(profiles)))
	return nil
}

// Fetch looks the site up by its derived key.
func (f *FileSource) Fetch(ctx context.Context, site models.SiteRef) (models.SiteProfile, error) {
	key := utils.SiteKey(site.Code, site.Name)

	f.mu.RLock()
	p, ok := f.profiles[key]
	f.mu.RUnlock()

	if !ok {
		return models.SiteProfile{}, ErrNoProfile
	}
	return p, nil
}

func (fp fileProfile) toProfile() models.SiteProfile {
	p := models.DefaultProfile()

	if fp.BuildingStart != nil {
		p.BuildingStart = *fp.BuildingStart
	}
	if fp.BuildingCount != nil {
		p.BuildingCount = *fp.BuildingCount
	}
	if fp.DefaultLineCount != nil {
		p.DefaultLineCount = *fp.DefaultLineCount
	}
	if fp.DefaultMaxFloor != nil {
		p.DefaultMaxFloor = *fp.DefaultMaxFloor
	}
	if fp.DefaultBasementFloors != nil {
		p.DefaultBasementFloors = *fp.DefaultBasementFloors
	}

	if len(fp.BuildingOverrides) > 0 {
		overrides := make(map[string]models.BuildingOverride, len(fp.BuildingOverrides))
		for id, fo := range fp.BuildingOverrides {
			var o models.BuildingOverride
			if fo.LineCount != nil {
				o.LineCount = models.IntPtr(*fo.LineCount)
			}
			if fo.MaxFloor != nil {
				o.MaxFloor = models.IntPtr(*fo.MaxFloor)
			}
			if fo.BasementFloors != nil {
				o.BasementFloors = models.IntPtr(*fo.BasementFloors)
			}
			if len(fo.LineMaxFloors) > 0 {
				floors := make(map[string]int, len(fo.LineMaxFloors))
				for line, max := range fo.LineMaxFloors {
					floors[line] = max
				}
				o.LineMaxFloors = floors
			}
			overrides[id] = o
		}
		p.BuildingOverrides = overrides
	}

	return p.Sanitize()
}
