package common

// JSON-RPC method names served by the daemon.
const (
	MethodVersion      = "system.getVersion"
	MethodDependencies = "system.dependencies"

	MethodQueueAdd         = "queue.add"
	MethodQueuePause       = "queue.pause"
	MethodQueueResume      = "queue.resume"
	MethodQueueCancel      = "queue.cancel"
	MethodQueueMove        = "queue.move"
	MethodQueueList        = "queue.list"
	MethodQueueGet         = "queue.get"
	MethodQueueRemove      = "queue.remove"
	MethodQueueClear       = "queue.clear"
	MethodQueueConcurrency = "queue.setConcurrency"

	MethodMetaVideo    = "meta.video"
	MethodMetaPlaylist = "meta.playlist"
	MethodMetaChannel  = "meta.channel"
	MethodMetaDetect   = "meta.detect"
	MethodMetaCache    = "meta.cacheStats"
)

// Push notification names sent over WebSocket connections.
const (
	NotifyQueueUpdated = "queue.updated"
	NotifyStatus       = "download.status"
	NotifyProgress     = "download.progress"
	NotifyComplete     = "download.complete"
	NotifyError        = "download.error"
)

// Custom JSON-RPC error codes.
const (
	CodeJobNotFound     = -32001
	CodeDuplicateJob    = -32002
	CodeJobNotTerminal  = -32003
	CodeUnsupportedURL  = -32004
	CodeExtractorFailed = -32005
	CodeClosed          = -32006
)
