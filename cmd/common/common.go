// Package common provides shared helpers for the warptube CLI commands:
// progress bars, tables, value formatting, error printing and help.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/warpdl/warptube/pkg/tubecli"
)

// VersionCmdStr holds the formatted version string displayed by the version command.
var VersionCmdStr string

// Stdout receives all command output.
var Stdout io.Writer = os.Stdout

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// SetShowAppHelpAndExit swaps the app help printer and returns the previous one.
func SetShowAppHelpAndExit(fn func(*cli.Context, int)) func(*cli.Context, int) {
	prev := showAppHelpAndExit
	showAppHelpAndExit = fn
	return prev
}

// SetShowCommandHelp swaps the command help printer and returns the previous one.
func SetShowCommandHelp(fn func(*cli.Context, string) error) func(*cli.Context, string) error {
	prev := showCommandHelp
	showCommandHelp = fn
	return prev
}

// BarTotal is the bar scale for one job: percent with one decimal.
const BarTotal = 1000

// JobBar is a percentage bar for one job with a free-form trailing
// label for speed and ETA.
type JobBar struct {
	*mpb.Bar
	info atomic.Value
}

// NewJobBar adds a bar for one job to p.
func NewJobBar(p *mpb.Progress, name string) *JobBar {
	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	name = Truncate(name, 32)
	jb := &JobBar{}
	jb.info.Store("")
	jb.Bar = p.New(BarTotal,
		barStyle,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: 33, C: decor.DindentRight}),
			decor.OnAbort(
				decor.OnComplete(decor.Percentage(decor.WC{W: 6}), "done"),
				"stopped",
			),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string { return jb.info.Load().(string) }),
		),
	)
	return jb
}

// SetInfo replaces the trailing label.
func (b *JobBar) SetInfo(s string) { b.info.Store(s) }

// BarValue converts a percentage to the bar scale.
func BarValue(pct float64) int64 {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return int64(pct * BarTotal / 100)
}

// Help displays help information for the application or a specific command.
func Help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Fprintf(Stdout, "%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	err := showCommandHelp(ctx, arg)
	if err != nil {
		return err
	}
	return nil
}

// GetVersion prints the version string.
func GetVersion(ctx *cli.Context) error {
	fmt.Fprintln(Stdout, VersionCmdStr)
	return nil
}

// PrintRuntimeErr prints a failed step of a command. Daemon errors are
// shown with their message and, when known, a suggested action.
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		fmt.Fprintln(Stdout, "err is nil", "[", cmd, "|", action, "]")
		return
	}
	var name string
	if ctx != nil {
		name = ctx.App.HelpName
	} else {
		name = os.Args[0]
	}
	fmt.Fprintf(Stdout, "%s: %s[%s]: %s\n", name, cmd, action, tubecli.ErrorMessage(err))
	if info, ok := tubecli.ErrorDetails(err); ok && info.Action != "" {
		fmt.Fprintf(Stdout, "hint: %s\n", info.Action)
	}
}

// PrintErrWithCmdHelp prints err followed by the current command's help.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(
		ctx,
		err,
		func() {
			err := showCommandHelp(ctx, ctx.Command.Name)
			if err != nil {
				fmt.Fprintln(Stdout, err.Error())
			}
		},
	)
}

// PrintErrWithHelp prints err followed by the application help and exits
// with status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(
		ctx,
		err,
		func() {
			showAppHelpAndExit(ctx, 1)
		},
	)
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	estr := strings.ToLower(err.Error())
	if estr == "flag: help requested" {
		return Help(ctx)
	}
	if strings.Contains(estr, "-version") ||
		strings.Contains(estr, "-v") {
		return GetVersion(ctx)
	}
	fmt.Fprintf(Stdout, "%s: %s\n\n", ctx.App.HelpName, err.Error())
	callback()
	return nil
}

// UsageErrorCallback is the OnUsageError hook for cli.App and cli.Command.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}
