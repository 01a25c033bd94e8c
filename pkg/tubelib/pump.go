package tubelib

import (
	"sync"
)

// progressPump hands progress records from an extractor reader to a
// single consumer goroutine. Push never blocks; when the consumer lags,
// only the latest record is kept.
type progressPump struct {
	apply   func(Progress)
	pending Progress
	has     bool
	closed  bool
	notify  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
}

func newProgressPump(apply func(Progress)) *progressPump {
	p := &progressPump{
		apply:  apply,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Push records pr as the latest progress. Pushes after Close are dropped.
func (p *progressPump) Push(pr Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = pr
	p.has = true
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *progressPump) run() {
	defer close(p.done)
	for range p.notify {
		p.drain()
	}
	p.drain()
}

func (p *progressPump) drain() {
	p.mu.Lock()
	if !p.has {
		p.mu.Unlock()
		return
	}
	pr := p.pending
	p.has = false
	p.mu.Unlock()
	p.apply(pr)
}

// Close stops accepting records, delivers the last pending one and waits
// for the consumer to exit.
func (p *progressPump) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.notify)
	}
	p.mu.Unlock()
	<-p.done
}
