package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/common"
)

var addFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "output, o",
		Usage: "directory to save into (default: daemon download dir)",
	},
	cli.StringFlag{
		Name:  "name, n",
		Usage: "file name or yt-dlp output template (single URL only)",
	},
	cli.StringFlag{
		Name:  "quality, q",
		Usage: "best, 2160p, 1440p, 1080p, 720p, 480p or 360p",
		Value: "best",
	},
	cli.StringFlag{
		Name:  "format, f",
		Usage: "container or audio codec (default: mp4, mp3 with -x)",
	},
	cli.BoolFlag{
		Name:  "audio-only, x",
		Usage: "extract audio only",
	},
}

// addItems builds one AddItem per URL from the command flags.
func addItems(ctx *cli.Context) ([]common.AddItem, error) {
	urls := []string(ctx.Args())
	if len(urls) == 0 {
		return nil, errors.New("no url provided")
	}
	name := ctx.String("name")
	if name != "" && len(urls) > 1 {
		return nil, errors.New("--name can only be used with a single url")
	}
	items := make([]common.AddItem, len(urls))
	for i, u := range urls {
		items[i] = common.AddItem{
			URL:       u,
			Dir:       ctx.String("output"),
			FileName:  name,
			Quality:   ctx.String("quality"),
			Format:    ctx.String("format"),
			AudioOnly: ctx.Bool("audio-only"),
		}
	}
	return items, nil
}

func add(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	items, err := addItems(ctx)
	if err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, err)
	}
	c, err := newClient(context.Background())
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "add", "new_client", err)
		return nil
	}
	defer c.Close()
	res, err := c.Add(context.Background(), items...)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "add", "queue_add", err)
		return nil
	}
	for i, id := range res.IDs {
		fmt.Fprintf(cmdCommon.Stdout, "Queued %s  %s\n", cmdCommon.ShortID(id), items[i].URL)
	}
	return nil
}
