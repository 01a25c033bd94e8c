package api

import (
	"context"

	"github.com/warpdl/warptube/common"
)

// versionHandler returns the daemon's build info and, when it can be
// determined, the version of the first provider's extractor.
func (s *Api) versionHandler(ctx context.Context) (*common.VersionResult, error) {
	res := &common.VersionResult{
		Version:   s.version,
		Commit:    s.commit,
		BuildType: s.buildType,
	}
	if all := s.registry.All(); len(all) > 0 {
		if v, err := all[0].Version(ctx); err == nil {
			res.Extractor = v
		} else {
			s.log.Debug("api: extractor version unavailable: %v", err)
		}
	}
	return res, nil
}

func (s *Api) dependenciesHandler(ctx context.Context) (*common.DependenciesResult, error) {
	return &common.DependenciesResult{Providers: s.meta.Dependencies(ctx)}, nil
}
