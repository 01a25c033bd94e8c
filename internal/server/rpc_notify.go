package server

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// RPCNotifier maintains a set of connected jrpc2 WebSocket servers
// and broadcasts push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
}

func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     logger.OrNop(l),
	}
}

func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to all registered servers.
// Servers that fail to receive it are unregistered.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(context.Background(), method, params); err != nil {
			n.log.Debug("RPC push failed: %v", err)
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// Notification maps a manager event to its push method and params.
func Notification(ev tubelib.Event) (string, any, bool) {
	switch ev.Type {
	case tubelib.EventQueueUpdated:
		return common.NotifyQueueUpdated, &common.QueueNotification{Jobs: ev.Jobs}, true
	case tubelib.EventStatusChanged:
		return common.NotifyStatus, &common.StatusNotification{ID: ev.JobID, Status: ev.Status}, true
	case tubelib.EventProgress:
		return common.NotifyProgress, &common.ProgressNotification{ID: ev.JobID, Progress: ev.Progress}, true
	case tubelib.EventCompleted:
		return common.NotifyComplete, &common.CompleteNotification{ID: ev.JobID}, true
	case tubelib.EventError:
		return common.NotifyError, &common.ErrorNotification{
			ID:        ev.JobID,
			Error:     ev.Message,
			Kind:      ev.Kind,
			Retryable: ev.Retryable,
			Action:    tubelib.SuggestedAction(ev.Kind),
		}, true
	}
	return "", nil, false
}

// Forward broadcasts every event from events until ctx ends or the
// channel closes.
func (n *RPCNotifier) Forward(ctx context.Context, events <-chan tubelib.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if method, params, ok := Notification(ev); ok {
				n.Broadcast(method, params)
			}
		}
	}
}
