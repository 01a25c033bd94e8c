package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/pkg/tubecli"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// jobAction builds a command that applies op to one job id. missing is the
// format printed when op reports no job back.
func jobAction(name, done, missing string, op func(*tubecli.Client, context.Context, string) (*tubelib.Job, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		ref := ctx.Args().First()
		if ref == "" {
			return cmdCommon.PrintErrWithCmdHelp(ctx, errors.New("no job id provided"))
		} else if ref == "help" {
			return cli.ShowCommandHelp(ctx, ctx.Command.Name)
		}
		bg := context.Background()
		c, err := newClient(bg)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, name, "new_client", err)
			return nil
		}
		defer c.Close()
		id, err := resolveID(bg, c, ref)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, name, "resolve_id", err)
			return nil
		}
		j, err := op(c, bg, id)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, name, name, err)
			return nil
		}
		if j != nil {
			fmt.Fprintf(cmdCommon.Stdout, "%s %s (%s)\n", done, cmdCommon.ShortID(id), j.Status)
		} else {
			fmt.Fprintf(cmdCommon.Stdout, missing+"\n", cmdCommon.ShortID(id))
		}
		return nil
	}
}

var (
	pauseJob  = jobAction("pause", "Paused", "No job %s, nothing to pause", (*tubecli.Client).Pause)
	resumeJob = jobAction("resume", "Resumed", "No job %s, nothing to resume", (*tubecli.Client).Resume)
	cancelJob = jobAction("cancel", "Cancelled", "No job %s, nothing to cancel", (*tubecli.Client).Cancel)
	removeJob = jobAction("remove", "Removed", "Removed %s", func(c *tubecli.Client, ctx context.Context, id string) (*tubelib.Job, error) {
		return nil, c.Remove(ctx, id)
	})
)

// parsePositions reads 1-based from/to arguments as 0-based indices.
func parsePositions(args cli.Args) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("expected <from> <to>")
	}
	from, err := strconv.Atoi(args[0])
	if err != nil || from < 1 {
		return 0, 0, fmt.Errorf("invalid position %q", args[0])
	}
	to, err := strconv.Atoi(args[1])
	if err != nil || to < 1 {
		return 0, 0, fmt.Errorf("invalid position %q", args[1])
	}
	return from - 1, to - 1, nil
}

func move(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	from, to, err := parsePositions(ctx.Args())
	if err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, err)
	}
	c, err := newClient(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "move", "new_client", err)
		return nil
	}
	defer c.Close()
	if err := c.Move(context.Background(), from, to); err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "move", "queue_move", err)
		return nil
	}
	fmt.Fprintf(cmdCommon.Stdout, "Moved job %d to position %d\n", from+1, to+1)
	return nil
}

func clearFinished(ctx *cli.Context) error {
	c, err := newClient(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "clear", "new_client", err)
		return nil
	}
	defer c.Close()
	n, err := c.Clear(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "clear", "queue_clear", err)
		return nil
	}
	fmt.Fprintf(cmdCommon.Stdout, "Removed %d finished job(s)\n", n)
	return nil
}

func concurrency(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" {
		return cmdCommon.PrintErrWithCmdHelp(ctx, errors.New("no limit provided"))
	} else if arg == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, fmt.Errorf("invalid limit %q", arg))
	}
	c, err := newClient(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "concurrency", "new_client", err)
		return nil
	}
	defer c.Close()
	applied, err := c.SetConcurrency(context.Background(), n)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "concurrency", "set", err)
		return nil
	}
	fmt.Fprintf(cmdCommon.Stdout, "Running up to %d download(s) at once\n", applied)
	return nil
}
