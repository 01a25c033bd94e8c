package tubecli

import (
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/warptube/common"
)

// Dispatcher routes pushed notifications to handlers by method name.
// Handlers run on the client's receive goroutine and must not block.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]func(*jrpc2.Request)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]func(*jrpc2.Request))}
}

func (d *Dispatcher) add(method string, fn func(*jrpc2.Request)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = append(d.handlers[method], fn)
}

func (d *Dispatcher) dispatch(req *jrpc2.Request) {
	d.mu.RLock()
	hs := d.handlers[req.Method()]
	d.mu.RUnlock()
	for _, h := range hs {
		h(req)
	}
}

// on registers fn for method with params decoded into T. Undecodable
// notifications are skipped.
func on[T any](d *Dispatcher, method string, fn func(*T)) {
	d.add(method, func(req *jrpc2.Request) {
		var v T
		if err := req.UnmarshalParams(&v); err != nil {
			return
		}
		fn(&v)
	})
}

func (d *Dispatcher) OnQueueUpdated(fn func(*common.QueueNotification)) {
	on(d, common.NotifyQueueUpdated, fn)
}

func (d *Dispatcher) OnStatus(fn func(*common.StatusNotification)) {
	on(d, common.NotifyStatus, fn)
}

func (d *Dispatcher) OnProgress(fn func(*common.ProgressNotification)) {
	on(d, common.NotifyProgress, fn)
}

func (d *Dispatcher) OnComplete(fn func(*common.CompleteNotification)) {
	on(d, common.NotifyComplete, fn)
}

func (d *Dispatcher) OnError(fn func(*common.ErrorNotification)) {
	on(d, common.NotifyError, fn)
}
