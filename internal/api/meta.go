package api

import (
	"context"

	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/tubelib"
)

func (s *Api) videoHandler(ctx context.Context, p *common.URLParams) (*tubelib.VideoInfo, error) {
	v, err := s.meta.Video(ctx, p.URL)
	if err != nil {
		return nil, rpcError(err)
	}
	return &v, nil
}

func (s *Api) playlistHandler(ctx context.Context, p *common.URLParams) (*tubelib.PlaylistInfo, error) {
	pl, err := s.meta.Playlist(ctx, p.URL)
	if err != nil {
		return nil, rpcError(err)
	}
	return &pl, nil
}

func (s *Api) channelHandler(ctx context.Context, p *common.URLParams) (*tubelib.ChannelInfo, error) {
	c, err := s.meta.Channel(ctx, p.URL)
	if err != nil {
		return nil, rpcError(err)
	}
	return &c, nil
}

func (s *Api) detectHandler(_ context.Context, p *common.URLParams) (*common.DetectResult, error) {
	info, err := s.meta.Detect(p.URL)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.DetectResult{URL: info.URL, Platform: info.Platform, Kind: string(info.Kind)}, nil
}

func (s *Api) cacheStatsHandler(context.Context) (*common.CacheStatsResult, error) {
	st := s.meta.Cache().Stats()
	return &common.CacheStatsResult{
		Videos:    st.Videos,
		Playlists: st.Playlists,
		Channels:  st.Channels,
		Total:     st.Total,
	}, nil
}
