package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
)

var lsFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "status, s",
		Usage: "only show jobs with this status",
	},
}

var listHeaders = []string{"#", "ID", "Title", "Status", "Progress", "Speed", "ETA"}

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	c, err := newClient(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "list", "new_client", err)
		return nil
	}
	defer c.Close()
	l, err := c.List(context.Background(), ctx.String("status"))
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "list", "get_list", err)
		return nil
	}
	if len(l.Jobs) == 0 {
		fmt.Fprintln(cmdCommon.Stdout, "warptube: queue is empty")
		return nil
	}
	rows := make([][]string, len(l.Jobs))
	for i := range l.Jobs {
		rows[i] = cmdCommon.JobRow(i+1, &l.Jobs[i])
	}
	fmt.Fprintln(cmdCommon.Stdout, cmdCommon.RenderTable(listHeaders, rows))
	fmt.Fprintf(cmdCommon.Stdout, "%d job(s), %d of %d slot(s) busy\n", len(l.Jobs), l.Active, l.MaxConcurrent)
	return nil
}
