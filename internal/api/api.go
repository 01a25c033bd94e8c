// Package api binds the queue manager and metadata service to JSON-RPC
// methods.
package api

import (
	"github.com/creachadair/jrpc2/handler"
	"github.com/google/uuid"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/provider"
	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// Config carries build info and defaults for the handlers.
type Config struct {
	Version   string
	Commit    string
	BuildType string
	// DownloadDir is used when an add request names neither a save path
	// nor a directory.
	DownloadDir string
	Logger      logger.Logger
}

type Api struct {
	log         logger.Logger
	manager     *tubelib.Manager
	meta        *provider.MetadataService
	registry    *provider.Registry
	version     string
	commit      string
	buildType   string
	downloadDir string
	newID       func() string
}

func NewApi(cfg *Config, m *tubelib.Manager, meta *provider.MetadataService, reg *provider.Registry) *Api {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Api{
		log:         logger.OrNop(cfg.Logger),
		manager:     m,
		meta:        meta,
		registry:    reg,
		version:     cfg.Version,
		commit:      cfg.Commit,
		buildType:   cfg.BuildType,
		downloadDir: cfg.DownloadDir,
		newID:       uuid.NewString,
	}
}

// Methods returns the method table served over HTTP and WebSocket.
func (s *Api) Methods() handler.Map {
	return handler.Map{
		common.MethodVersion:      handler.New(s.versionHandler),
		common.MethodDependencies: handler.New(s.dependenciesHandler),

		common.MethodQueueAdd:         handler.New(s.addHandler),
		common.MethodQueuePause:       handler.New(s.pauseHandler),
		common.MethodQueueResume:      handler.New(s.resumeHandler),
		common.MethodQueueCancel:      handler.New(s.cancelHandler),
		common.MethodQueueMove:        handler.New(s.moveHandler),
		common.MethodQueueList:        handler.New(s.listHandler),
		common.MethodQueueGet:         handler.New(s.getHandler),
		common.MethodQueueRemove:      handler.New(s.removeHandler),
		common.MethodQueueClear:       handler.New(s.clearHandler),
		common.MethodQueueConcurrency: handler.New(s.concurrencyHandler),

		common.MethodMetaVideo:    handler.New(s.videoHandler),
		common.MethodMetaPlaylist: handler.New(s.playlistHandler),
		common.MethodMetaChannel:  handler.New(s.channelHandler),
		common.MethodMetaDetect:   handler.New(s.detectHandler),
		common.MethodMetaCache:    handler.New(s.cacheStatsHandler),
	}
}

func (s *Api) Close() error {
	return s.manager.Close()
}
