package tubelib

// FormatInfo describes one downloadable variant reported by the extractor.
type FormatInfo struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution,omitempty"`
	Filesize   uint64 `json:"filesize,omitempty"`
}

// VideoInfo is the metadata of a single video.
type VideoInfo struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    uint64       `json:"duration"` // seconds
	Uploader    string       `json:"uploader"`
	UploadDate  string       `json:"upload_date"`
	ViewCount   uint64       `json:"view_count"`
	Formats     []FormatInfo `json:"available_formats"`
	Platform    string       `json:"platform"`
	URL         string       `json:"url"`
}

// PlaylistInfo is the metadata of a playlist. Videos carry only the
// fields a flat listing provides.
type PlaylistInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Uploader    string      `json:"uploader"`
	VideoCount  int         `json:"video_count"`
	Videos      []VideoInfo `json:"videos"`
	Platform    string      `json:"platform"`
	URL         string      `json:"url"`
}

// ChannelInfo is the metadata of a channel.
type ChannelInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Playlists   []PlaylistInfo `json:"playlists"`
	Videos      []VideoInfo    `json:"all_videos"`
	Platform    string         `json:"platform"`
	URL         string         `json:"url"`
}

// Dependency reports whether an external tool a provider needs is usable.
type Dependency struct {
	Name                string `json:"name"`
	Installed           bool   `json:"installed"`
	Version             string `json:"version,omitempty"`
	Path                string `json:"path,omitempty"`
	InstallInstructions string `json:"install_instructions"`
}

// ProviderStatus is the dependency report of one provider.
type ProviderStatus struct {
	Provider     string       `json:"provider"`
	Dependencies []Dependency `json:"dependencies"`
	Ready        bool         `json:"ready"`
}
