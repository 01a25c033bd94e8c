package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/tubelib"
)

var watchFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "until-idle, i",
		Usage: "exit once no job is queued or downloading",
	},
}

// watcher keeps one bar per unfinished job, driven by pushed events.
type watcher struct {
	p         *mpb.Progress
	untilIdle bool

	mu   sync.Mutex
	bars map[string]*cmdCommon.JobBar
	idle chan struct{}
	once sync.Once
}

func newWatcher(p *mpb.Progress, untilIdle bool) *watcher {
	return &watcher{
		p:         p,
		untilIdle: untilIdle,
		bars:      make(map[string]*cmdCommon.JobBar),
		idle:      make(chan struct{}),
	}
}

// sync adds bars for unfinished jobs in jobs and signals idle when none
// is left running.
func (w *watcher) sync(jobs []tubelib.Job) {
	w.mu.Lock()
	busy := false
	for i := range jobs {
		j := &jobs[i]
		if j.Status.IsTerminal() {
			continue
		}
		if j.Status != tubelib.StatusPaused {
			busy = true
		}
		if _, ok := w.bars[j.ID]; ok {
			continue
		}
		b := cmdCommon.NewJobBar(w.p, cmdCommon.JobTitle(j))
		b.SetCurrent(cmdCommon.BarValue(j.Progress))
		if j.Status == tubelib.StatusPaused {
			b.SetInfo("paused")
		}
		w.bars[j.ID] = b
	}
	w.mu.Unlock()
	if w.untilIdle && !busy {
		w.once.Do(func() { close(w.idle) })
	}
}

func (w *watcher) bar(id string) *cmdCommon.JobBar {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bars[id]
}

// finish stops tracking id.
func (w *watcher) finish(id string) *cmdCommon.JobBar {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.bars[id]
	delete(w.bars, id)
	return b
}

func (w *watcher) onProgress(n *common.ProgressNotification) {
	b := w.bar(n.ID)
	if b == nil {
		return
	}
	b.SetCurrent(cmdCommon.BarValue(n.Progress.Percentage))
	b.SetInfo(fmt.Sprintf("%s  ETA %s", cmdCommon.FormatSpeed(n.Progress.Speed), cmdCommon.FormatETA(n.Progress.ETA)))
}

func (w *watcher) onStatus(n *common.StatusNotification) {
	switch n.Status {
	case tubelib.StatusPaused:
		if b := w.bar(n.ID); b != nil {
			b.SetInfo("paused")
		}
	case tubelib.StatusCancelled:
		if b := w.finish(n.ID); b != nil {
			b.Abort(false)
		}
	}
}

func (w *watcher) onComplete(n *common.CompleteNotification) {
	if b := w.finish(n.ID); b != nil {
		b.SetInfo("")
		b.SetCurrent(cmdCommon.BarTotal)
	}
}

func (w *watcher) onError(n *common.ErrorNotification) {
	if b := w.finish(n.ID); b != nil {
		b.SetInfo(cmdCommon.Truncate(n.Error, 40))
		b.Abort(false)
	}
}

// stop aborts the bars still running so the progress container can exit.
func (w *watcher) stop() {
	w.mu.Lock()
	for id, b := range w.bars {
		b.Abort(false)
		delete(w.bars, id)
	}
	w.mu.Unlock()
	w.p.Wait()
}

func watch(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newClient(sigCtx)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "watch", "new_client", err)
		return nil
	}
	defer c.Close()

	w := newWatcher(mpb.New(mpb.WithOutput(cmdCommon.Stdout), mpb.WithWidth(48)), ctx.Bool("until-idle"))
	d := c.Dispatcher()
	d.OnProgress(w.onProgress)
	d.OnStatus(w.onStatus)
	d.OnComplete(w.onComplete)
	d.OnError(w.onError)
	d.OnQueueUpdated(func(n *common.QueueNotification) { w.sync(n.Jobs) })

	l, err := c.List(sigCtx, "")
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "watch", "get_list", err)
		return nil
	}
	w.sync(l.Jobs)

	select {
	case <-sigCtx.Done():
	case <-c.Done():
		fmt.Fprintln(cmdCommon.Stdout, "warptube: daemon connection closed")
	case <-w.idle:
	}
	w.stop()
	return nil
}
