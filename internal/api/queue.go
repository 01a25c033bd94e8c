package api

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/provider"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// DefaultOutputTemplate names files after the video title.
const DefaultOutputTemplate = "%(title)s.%(ext)s"

// addHandler queues a batch. Every URL must be valid and served by a
// provider; otherwise nothing is queued.
func (s *Api) addHandler(_ context.Context, p *common.AddParams) (*common.AddResult, error) {
	if len(p.Items) == 0 {
		return nil, invalidParams("missing required param: items")
	}
	jobs := make([]*tubelib.Job, 0, len(p.Items))
	for i := range p.Items {
		j, err := s.buildJob(&p.Items[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := s.manager.Enqueue(jobs); err != nil {
		return nil, rpcError(err)
	}
	res := &common.AddResult{IDs: make([]string, len(jobs))}
	for i, j := range jobs {
		res.IDs[i] = j.ID
	}
	return res, nil
}

func (s *Api) buildJob(it *common.AddItem) (*tubelib.Job, error) {
	if strings.TrimSpace(it.URL) == "" {
		return nil, invalidParams("missing required param: url")
	}
	url, err := provider.NormalizeURL(it.URL)
	if err != nil {
		return nil, rpcError(err)
	}
	p, ok := s.registry.Detect(url)
	if !ok {
		return nil, rpcError(tubelib.NewError(
			tubelib.KindUnsupportedPlatform,
			fmt.Sprintf("Unsupported platform for URL: %s", url),
			tubelib.ErrUnsupportedPlatform,
		))
	}
	opts := tubelib.DefaultDownloadOptions()
	if it.Quality != "" {
		opts.Quality = it.Quality
	}
	if it.Format != "" {
		opts.Format = it.Format
	} else if it.AudioOnly {
		opts.Format = "mp3"
	}
	opts.AudioOnly = it.AudioOnly

	id := it.ID
	if id == "" {
		id = s.newID()
	}
	return &tubelib.Job{
		ID:        id,
		URL:       url,
		Platform:  p.Name(),
		Title:     it.Title,
		Thumbnail: it.Thumbnail,
		SavePath:  s.savePath(it),
		Options:   opts,
	}, nil
}

func (s *Api) savePath(it *common.AddItem) string {
	if it.SavePath != "" {
		return it.SavePath
	}
	dir := it.Dir
	if dir == "" {
		dir = s.downloadDir
	}
	name := it.FileName
	if name == "" {
		name = DefaultOutputTemplate
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// requireJob reports an unknown id as not found, for lookups that have
// nothing to return otherwise.
func (s *Api) requireJob(id string) error {
	if id == "" {
		return invalidParams("missing required param: id")
	}
	if _, ok := s.manager.Get(id); !ok {
		return rpcError(tubelib.ErrJobNotFound)
	}
	return nil
}

func (s *Api) pauseHandler(_ context.Context, p *common.IDParams) (*tubelib.Job, error) {
	return s.control(p.ID, s.manager.Pause)
}

func (s *Api) resumeHandler(_ context.Context, p *common.IDParams) (*tubelib.Job, error) {
	return s.control(p.ID, s.manager.Resume)
}

func (s *Api) cancelHandler(_ context.Context, p *common.IDParams) (*tubelib.Job, error) {
	return s.control(p.ID, s.manager.Cancel)
}

// control applies op and returns the job as it stands afterwards. An
// unknown id is a no-op with a null result.
func (s *Api) control(id string, op func(string) error) (*tubelib.Job, error) {
	if id == "" {
		return nil, invalidParams("missing required param: id")
	}
	if err := op(id); err != nil {
		return nil, rpcError(err)
	}
	j, ok := s.manager.Get(id)
	if !ok {
		return nil, nil
	}
	return &j, nil
}

// moveHandler leaves the queue untouched when either index is out of
// range.
func (s *Api) moveHandler(_ context.Context, p *common.MoveParams) (*common.EmptyResult, error) {
	if err := s.manager.Reorder(p.From, p.To); err != nil {
		return nil, rpcError(err)
	}
	return &common.EmptyResult{}, nil
}

func (s *Api) listHandler(_ context.Context, p *common.ListParams) (*common.ListResult, error) {
	jobs := s.manager.Snapshot()
	if p.Status != "" {
		st, err := tubelib.ParseStatus(p.Status)
		if err != nil {
			return nil, invalidParams(err.Error())
		}
		filtered := jobs[:0]
		for _, j := range jobs {
			if j.Status == st {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	if jobs == nil {
		jobs = []tubelib.Job{}
	}
	return &common.ListResult{
		Jobs:          jobs,
		Active:        s.manager.ActiveCount(),
		MaxConcurrent: s.manager.MaxConcurrent(),
	}, nil
}

func (s *Api) getHandler(_ context.Context, p *common.IDParams) (*tubelib.Job, error) {
	if err := s.requireJob(p.ID); err != nil {
		return nil, err
	}
	j, _ := s.manager.Get(p.ID)
	return &j, nil
}

func (s *Api) removeHandler(_ context.Context, p *common.IDParams) (*common.EmptyResult, error) {
	if p.ID == "" {
		return nil, invalidParams("missing required param: id")
	}
	if err := s.manager.Remove(p.ID); err != nil {
		return nil, rpcError(err)
	}
	return &common.EmptyResult{}, nil
}

func (s *Api) clearHandler(context.Context) (*common.ClearResult, error) {
	return &common.ClearResult{Removed: s.manager.ClearFinished()}, nil
}

func (s *Api) concurrencyHandler(_ context.Context, p *common.ConcurrencyParams) (*common.ConcurrencyResult, error) {
	n := s.manager.SetMaxConcurrent(p.Max)
	s.log.Info("api: max concurrent downloads set to %d", n)
	return &common.ConcurrencyResult{Max: n}, nil
}
