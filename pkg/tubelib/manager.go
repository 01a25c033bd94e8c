package tubelib

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warpdl/warptube/pkg/logger"
)

// Manager defaults.
const (
	DEF_MAX_CONCURRENT   = 3
	MIN_MAX_CONCURRENT   = 1
	MAX_MAX_CONCURRENT   = 5
	DEF_POLL_INTERVAL    = 500 * time.Millisecond
	DEF_LOOP_DELAY       = 100 * time.Millisecond
	DEF_DOWNLOAD_TIMEOUT = 30 * time.Minute
	DEF_CANCEL_GRACE     = 10 * time.Second
)

// ManagerOpts configures a Manager. Zero fields take the defaults above.
type ManagerOpts struct {
	// MaxConcurrent is clamped to [1, 5].
	MaxConcurrent int
	// PollInterval is how long the loop waits when it cannot admit.
	PollInterval time.Duration
	// LoopDelay is the pause between two admissions.
	LoopDelay time.Duration
	// DownloadTimeout bounds a single attempt.
	DownloadTimeout time.Duration
	// ThrottleInterval spaces progress events of one job.
	ThrottleInterval time.Duration
	// CancelGrace is how long a cancelled attempt may take to exit
	// before the manager stops waiting for it.
	CancelGrace time.Duration
	// EventBuffer is the default subscriber channel capacity.
	EventBuffer int
	Logger      logger.Logger
}

func (o *ManagerOpts) withDefaults() ManagerOpts {
	var opts ManagerOpts
	if o != nil {
		opts = *o
	}
	if opts.MaxConcurrent == 0 {
		opts.MaxConcurrent = DEF_MAX_CONCURRENT
	}
	opts.MaxConcurrent = clampConcurrency(opts.MaxConcurrent)
	if opts.PollInterval <= 0 {
		opts.PollInterval = DEF_POLL_INTERVAL
	}
	if opts.LoopDelay <= 0 {
		opts.LoopDelay = DEF_LOOP_DELAY
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DEF_DOWNLOAD_TIMEOUT
	}
	if opts.ThrottleInterval <= 0 {
		opts.ThrottleInterval = DefaultThrottleInterval
	}
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = DEF_CANCEL_GRACE
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	opts.Logger = logger.OrNop(opts.Logger)
	return opts
}

func clampConcurrency(n int) int {
	if n < MIN_MAX_CONCURRENT {
		return MIN_MAX_CONCURRENT
	}
	if n > MAX_MAX_CONCURRENT {
		return MAX_MAX_CONCURRENT
	}
	return n
}

// Manager is the download queue. It admits queued jobs up to a
// concurrency limit, supervises one extractor attempt per admitted job,
// persists the queue on every status change and publishes events.
//
// Lock order: persistMu, then mu, then the active map and the broker.
type Manager struct {
	providers ProviderResolver
	store     Store
	opts      ManagerOpts
	log       logger.Logger

	jobs []*Job
	mu   sync.RWMutex

	active        *VMap[string, *Task]
	maxConcurrent atomic.Int32

	processing bool
	closed     bool
	procMu     sync.Mutex
	wake       chan struct{}

	persistMu sync.Mutex
	events    *broker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager returns an idle Manager. store may be nil, in which case the
// queue lives in memory only.
func NewManager(providers ProviderResolver, store Store, opts *ManagerOpts) *Manager {
	o := opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		providers: providers,
		store:     store,
		opts:      o,
		log:       o.Logger,
		jobs:      make([]*Job, 0),
		active:    NewVMap[string, *Task](),
		wake:      make(chan struct{}, 1),
		events:    newBroker(),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.maxConcurrent.Store(int32(o.MaxConcurrent))
	return m
}

// Subscribe returns a channel of events and a function that unsubscribes
// and closes it. buffer <= 0 uses the configured EventBuffer.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = m.opts.EventBuffer
	}
	return m.events.subscribe(buffer)
}

// Enqueue appends jobs in order. Every job is copied, forced to queued
// and stamped with AddedAt if it has none. The whole batch is rejected if
// any job lacks an id or url or reuses an id already in the queue.
func (m *Manager) Enqueue(jobs []*Job) error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	if len(jobs) == 0 {
		return nil
	}
	m.mu.Lock()
	seen := make(map[string]struct{}, len(m.jobs)+len(jobs))
	for _, j := range m.jobs {
		seen[j.ID] = struct{}{}
	}
	added := make([]*Job, 0, len(jobs))
	now := time.Now()
	for _, j := range jobs {
		if j == nil || j.ID == "" || j.URL == "" {
			m.mu.Unlock()
			return ErrInvalidJob
		}
		if _, dup := seen[j.ID]; dup {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateJob, j.ID)
		}
		seen[j.ID] = struct{}{}
		c := *j
		c.Status = StatusQueued
		c.resetProgress()
		c.clearError()
		if c.AddedAt.IsZero() {
			c.AddedAt = now
		}
		if c.Options == (DownloadOptions{}) {
			c.Options = DefaultDownloadOptions()
		}
		added = append(added, &c)
	}
	m.jobs = append(m.jobs, added...)
	m.publishQueueLocked()
	m.mu.Unlock()

	m.log.Info("Queued %d job(s)", len(added))
	_ = m.persist()
	m.startProcessing()
	return nil
}

// Pause stops a queued or downloading job. A running extractor is killed.
// Unknown ids and jobs in any other state are left alone.
func (m *Manager) Pause(id string) error {
	m.mu.Lock()
	job := m.findLocked(id)
	if job == nil || (job.Status != StatusQueued && job.Status != StatusDownloading) {
		m.mu.Unlock()
		return nil
	}
	if t, ok := m.active.Load(id); ok {
		t.Cancel()
	}
	job.Status = StatusPaused
	job.Speed = 0
	job.ETA = 0
	m.publishStatusLocked(job)
	m.publishQueueLocked()
	m.mu.Unlock()

	_ = m.persist()
	m.signal()
	return nil
}

// Resume puts a paused job back in the queue with zeroed progress. Other
// states are left alone.
func (m *Manager) Resume(id string) error {
	m.mu.Lock()
	job := m.findLocked(id)
	if job == nil || job.Status != StatusPaused {
		m.mu.Unlock()
		return nil
	}
	job.Status = StatusQueued
	job.resetProgress()
	job.clearError()
	m.publishStatusLocked(job)
	m.publishQueueLocked()
	m.mu.Unlock()

	_ = m.persist()
	m.startProcessing()
	return nil
}

// Cancel moves any non-terminal job to cancelled, killing its extractor
// if one is running.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	job := m.findLocked(id)
	if job == nil || job.Status.IsTerminal() {
		m.mu.Unlock()
		return nil
	}
	if t, ok := m.active.Load(id); ok {
		t.Cancel()
	}
	job.Status = StatusCancelled
	job.Speed = 0
	job.ETA = 0
	m.publishStatusLocked(job)
	m.publishQueueLocked()
	m.mu.Unlock()

	_ = m.persist()
	m.signal()
	return nil
}

// Reorder moves the job at index from to index to. Out of range indices
// make it a no-op. Running jobs are unaffected; only future admission
// order changes.
func (m *Manager) Reorder(from, to int) error {
	m.mu.Lock()
	n := len(m.jobs)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		m.mu.Unlock()
		return nil
	}
	job := m.jobs[from]
	m.jobs = append(m.jobs[:from], m.jobs[from+1:]...)
	m.jobs = append(m.jobs[:to], append([]*Job{job}, m.jobs[to:]...)...)
	m.publishQueueLocked()
	m.mu.Unlock()

	_ = m.persist()
	return nil
}

// Remove drops a finished or paused job from the queue.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrJobNotFound
	}
	job := m.jobs[idx]
	if !job.Status.IsTerminal() && job.Status != StatusPaused {
		m.mu.Unlock()
		return ErrJobNotTerminal
	}
	if m.active.Has(id) {
		m.mu.Unlock()
		return ErrJobNotTerminal
	}
	m.jobs = append(m.jobs[:idx], m.jobs[idx+1:]...)
	m.publishQueueLocked()
	m.mu.Unlock()

	_ = m.persist()
	return nil
}

// ClearFinished drops every completed, failed and cancelled job whose
// attempt has fully exited, and returns how many were dropped.
func (m *Manager) ClearFinished() int {
	m.mu.Lock()
	kept := m.jobs[:0]
	var dropped int
	for _, j := range m.jobs {
		if j.Status.IsTerminal() && !m.active.Has(j.ID) {
			dropped++
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(m.jobs); i++ {
		m.jobs[i] = nil
	}
	m.jobs = kept
	if dropped > 0 {
		m.publishQueueLocked()
	}
	m.mu.Unlock()

	if dropped > 0 {
		_ = m.persist()
	}
	return dropped
}

// Snapshot returns copies of all jobs in queue order.
func (m *Manager) Snapshot() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyJobsLocked()
}

// Get returns a copy of the job with the given id.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j := m.findLocked(id); j != nil {
		return *j, true
	}
	return Job{}, false
}

// ActiveCount returns the number of running attempts.
func (m *Manager) ActiveCount() int {
	return m.active.Len()
}

// MaxConcurrent returns the current concurrency limit.
func (m *Manager) MaxConcurrent() int {
	return int(m.maxConcurrent.Load())
}

// SetMaxConcurrent changes the concurrency limit, clamped to [1, 5], and
// returns the value applied. Lowering it never interrupts running jobs.
func (m *Manager) SetMaxConcurrent(n int) int {
	n = clampConcurrency(n)
	m.maxConcurrent.Store(int32(n))
	m.signal()
	return n
}

// Restore replaces the queue with the persisted snapshot. Jobs that were
// downloading are put back in the queue. A failed load is logged, leaves
// an empty queue and is returned.
func (m *Manager) Restore() error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	var (
		snap    *Snapshot
		loadErr error
	)
	if m.store != nil {
		snap, loadErr = m.store.Load()
		if loadErr != nil {
			m.log.Error("Failed to load queue snapshot, starting empty: %v", loadErr)
			snap = nil
		}
	}
	jobs := make([]*Job, 0)
	if snap != nil {
		snap.Recover()
		seen := make(map[string]struct{}, len(snap.Jobs))
		for _, j := range snap.Jobs {
			if j == nil || j.ID == "" {
				continue
			}
			if _, dup := seen[j.ID]; dup {
				continue
			}
			seen[j.ID] = struct{}{}
			c := *j
			if _, err := ParseStatus(string(c.Status)); err != nil {
				c.Status = StatusQueued
			}
			jobs = append(jobs, &c)
		}
	}

	m.mu.Lock()
	m.jobs = jobs
	m.publishQueueLocked()
	m.mu.Unlock()

	m.log.Info("Restored %d job(s)", len(jobs))
	m.startProcessing()
	if loadErr != nil {
		return fmt.Errorf("restore queue: %w", loadErr)
	}
	return nil
}

// Close stops admission, kills running extractors, waits for their
// goroutines and writes a final snapshot. Interrupted jobs keep the
// downloading status on disk and are re-queued by the next Restore.
func (m *Manager) Close() error {
	m.procMu.Lock()
	if m.closed {
		m.procMu.Unlock()
		return nil
	}
	m.closed = true
	m.procMu.Unlock()

	m.cancel()
	m.wg.Wait()
	err := m.persist()
	m.events.close()
	return err
}

func (m *Manager) isClosed() bool {
	m.procMu.Lock()
	defer m.procMu.Unlock()
	return m.closed
}

// startProcessing launches the scheduling loop unless one is running, in
// which case it only wakes it.
func (m *Manager) startProcessing() {
	m.procMu.Lock()
	defer m.procMu.Unlock()
	if m.closed {
		return
	}
	if m.processing {
		m.signal()
		return
	}
	m.processing = true
	m.wg.Add(1)
	safeGo(m.log, &m.wg, "queue-loop", func(interface{}) {
		m.procMu.Lock()
		m.processing = false
		m.procMu.Unlock()
	}, m.loop)
}

// signal wakes the loop without blocking.
func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) loop() {
	for {
		if m.ctx.Err() != nil {
			m.stopProcessing()
			return
		}
		if m.admitNext() {
			if !m.sleep(m.opts.LoopDelay, false) {
				m.stopProcessing()
				return
			}
			continue
		}
		m.procMu.Lock()
		if !m.hasWork() {
			m.processing = false
			m.procMu.Unlock()
			return
		}
		m.procMu.Unlock()
		if !m.sleep(m.opts.PollInterval, true) {
			m.stopProcessing()
			return
		}
	}
}

func (m *Manager) stopProcessing() {
	m.procMu.Lock()
	m.processing = false
	m.procMu.Unlock()
}

// sleep waits d, or less if wakeable and signalled. It reports false when
// the manager is closing.
func (m *Manager) sleep(d time.Duration, wakeable bool) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	var wake <-chan struct{}
	if wakeable {
		wake = m.wake
	}
	select {
	case <-m.ctx.Done():
		return false
	case <-wake:
	case <-timer.C:
	}
	return true
}

// hasWork reports whether any job is queued or any attempt is running.
func (m *Manager) hasWork() bool {
	if m.active.Len() > 0 {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, j := range m.jobs {
		if j.Status == StatusQueued {
			return true
		}
	}
	return false
}

// admitNext starts the first queued job in list order if a slot is free.
// Jobs whose previous attempt is still winding down are skipped.
func (m *Manager) admitNext() bool {
	if m.active.Len() >= m.MaxConcurrent() {
		return false
	}
	m.mu.Lock()
	if m.ctx.Err() != nil || m.active.Len() >= m.MaxConcurrent() {
		m.mu.Unlock()
		return false
	}
	var job *Job
	for _, j := range m.jobs {
		if j.Status == StatusQueued && !m.active.Has(j.ID) {
			job = j
			break
		}
	}
	if job == nil {
		m.mu.Unlock()
		return false
	}
	job.Status = StatusDownloading
	job.resetProgress()
	job.clearError()
	t := newTask(m.ctx, *job, NewThrottler(m.opts.ThrottleInterval))
	m.active.Set(job.ID, t)
	m.publishStatusLocked(job)
	m.publishQueueLocked()
	m.wg.Add(1)
	m.mu.Unlock()

	m.log.Info("Starting download %s: %s", t.job.ID, t.job.URL)
	_ = m.persist()
	safeGo(m.log, &m.wg, "download "+t.job.ID, func(r interface{}) {
		m.finish(t, fmt.Errorf("download worker panicked: %v", r))
	}, func() {
		m.run(t)
	})
	return true
}

// run supervises one attempt: it races the provider against the timeout
// and the task's cancellation signal, then records the outcome.
func (m *Manager) run(t *Task) {
	job := t.Job()
	var prov Provider
	ok := false
	if m.providers != nil {
		prov, ok = m.providers.Detect(job.URL)
	}
	if !ok {
		m.finish(t, NewError(KindUnsupportedPlatform, fmt.Sprintf("Platform not supported: %s", job.URL), ErrUnsupportedPlatform))
		return
	}

	pump := newProgressPump(func(p Progress) {
		m.applyProgress(t, p)
	})
	runCtx, cancelRun := context.WithCancel(t.Context())
	defer cancelRun()

	result := make(chan error, 1)
	safeGo(m.log, nil, "provider "+job.ID, func(r interface{}) {
		result <- fmt.Errorf("%s provider panicked: %v", prov.Name(), r)
	}, func() {
		result <- prov.Download(runCtx, job.URL, job.Options, job.SavePath, func(p Progress) {
			if t.throttle.Allow(p) {
				pump.Push(p)
			}
		})
	})

	timer := time.NewTimer(m.opts.DownloadTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-result:
	case <-timer.C:
		cancelRun()
		m.awaitProvider(job.ID, result)
		err = NewError(KindTimeout, timeoutMessage, ErrDownloadTimeout)
	case <-t.Done():
		cancelRun()
		m.awaitProvider(job.ID, result)
		err = context.Canceled
	}
	pump.Close()
	m.finish(t, err)
}

// awaitProvider gives a cancelled provider CancelGrace to return.
func (m *Manager) awaitProvider(id string, result <-chan error) {
	timer := time.NewTimer(m.opts.CancelGrace)
	defer timer.Stop()
	select {
	case <-result:
	case <-timer.C:
		m.log.Warning("Provider for %s did not exit within %s of cancellation", id, m.opts.CancelGrace)
	}
}

// applyProgress folds p into the job while t is still its running
// attempt. Percentage is clamped and never goes backwards.
func (m *Manager) applyProgress(t *Task, p Progress) {
	id := t.job.ID
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.findLocked(id)
	if job == nil || job.Status != StatusDownloading {
		return
	}
	if cur, ok := m.active.Load(id); !ok || cur != t {
		return
	}
	pct := p.Percentage
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct < job.Progress {
		pct = job.Progress
	}
	job.Progress = pct
	job.Speed = p.Speed
	job.ETA = p.ETA
	p.Percentage = pct
	m.events.publish(Event{Type: EventProgress, JobID: id, Progress: p})
}

// finish removes t from the active map exactly once and records the
// outcome if the job is still downloading under t. Statuses set by the
// user in the meantime are kept. Cancellation wins over a clean exit.
func (m *Manager) finish(t *Task, err error) {
	id := t.job.ID
	m.mu.Lock()
	removed := m.active.DeleteIf(id, func(cur *Task) bool { return cur == t })
	t.release()
	job := m.findLocked(id)
	closing := m.ctx.Err() != nil
	changed := false
	var final Status
	if removed && job != nil && job.Status == StatusDownloading && !(closing && err != nil && !t.IsCancelled()) {
		changed = true
		job.Speed = 0
		job.ETA = 0
		switch {
		case t.IsCancelled():
			job.Status = StatusCancelled
			m.publishStatusLocked(job)
		case err == nil:
			job.Status = StatusCompleted
			job.Progress = 100
			m.publishStatusLocked(job)
			m.events.publish(Event{Type: EventCompleted, JobID: id})
		default:
			job.Status = StatusFailed
			job.Error = UserMessage(err)
			job.ErrorKind = Classify(err)
			job.Retryable = job.ErrorKind.Retryable()
			m.publishStatusLocked(job)
			m.events.publish(Event{
				Type:      EventError,
				JobID:     id,
				Message:   job.Error,
				Kind:      job.ErrorKind,
				Retryable: job.Retryable,
			})
		}
		final = job.Status
		m.publishQueueLocked()
	}
	m.mu.Unlock()

	if changed {
		switch final {
		case StatusFailed:
			m.log.Warning("Download %s failed: %v", id, err)
		default:
			m.log.Info("Download %s %s", id, final)
		}
		_ = m.persist()
	}
	m.signal()
}

// persist saves the current queue. Saves are serialized and each one
// reflects the state at the time it runs. Errors are logged and returned
// but never stop the queue.
func (m *Manager) persist() error {
	if m.store == nil {
		return nil
	}
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.RLock()
	jobs := m.copyJobsLocked()
	m.mu.RUnlock()

	snap := &Snapshot{Jobs: make([]*Job, len(jobs)), SavedAt: time.Now()}
	for i := range jobs {
		snap.Jobs[i] = &jobs[i]
	}
	if err := m.store.Save(snap); err != nil {
		m.log.Error("Failed to save queue snapshot: %v", err)
		return err
	}
	return nil
}

func (m *Manager) findLocked(id string) *Job {
	if i := m.indexLocked(id); i >= 0 {
		return m.jobs[i]
	}
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i, j := range m.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) copyJobsLocked() []Job {
	out := make([]Job, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = *j
	}
	return out
}

func (m *Manager) publishStatusLocked(j *Job) {
	m.events.publish(Event{Type: EventStatusChanged, JobID: j.ID, Status: j.Status})
}

func (m *Manager) publishQueueLocked() {
	m.events.publish(Event{Type: EventQueueUpdated, Jobs: m.copyJobsLocked()})
}
