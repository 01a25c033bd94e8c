package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/common"
)

func depsRows(res *common.DependenciesResult) (rows [][]string, missing []string) {
	for _, p := range res.Providers {
		for _, d := range p.Dependencies {
			state, version := "missing", "-"
			if d.Installed {
				state, version = "ok", d.Version
			} else {
				missing = append(missing, fmt.Sprintf("%s: %s", d.Name, d.InstallInstructions))
			}
			path := d.Path
			if path == "" {
				path = "-"
			}
			rows = append(rows, []string{p.Provider, d.Name, state, version, path})
		}
	}
	return rows, missing
}

func deps(ctx *cli.Context) error {
	c, err := newClient(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "deps", "new_client", err)
		return nil
	}
	defer c.Close()
	res, err := c.Dependencies(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "deps", "check", err)
		return nil
	}
	rows, missing := depsRows(res)
	fmt.Fprintln(cmdCommon.Stdout, cmdCommon.RenderTable([]string{"Provider", "Tool", "Status", "Version", "Path"}, rows))
	for _, m := range missing {
		fmt.Fprintln(cmdCommon.Stdout, m)
	}
	return nil
}
