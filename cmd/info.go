package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/pkg/tubelib"
)

var infoFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "limit, l",
		Usage: "max entries to list for playlists and channels",
		Value: 20,
	},
}

func info(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return cmdCommon.PrintErrWithCmdHelp(ctx, errors.New("no url provided"))
	} else if url == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	bg := context.Background()
	c, err := newClient(bg)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "info", "new_client", err)
		return nil
	}
	defer c.Close()

	d, err := c.Detect(bg, url)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "info", "detect", err)
		return nil
	}
	fmt.Fprintf(cmdCommon.Stdout, "%s: fetching %s details, please wait...\n", ctx.App.HelpName, d.Kind)
	out := cmdCommon.Stdout
	switch d.Kind {
	case "playlist":
		p, err := c.Playlist(bg, d.URL)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, "info", "playlist", err)
			return nil
		}
		printPlaylist(out, p, ctx.Int("limit"))
	case "channel":
		ch, err := c.Channel(bg, d.URL)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, "info", "channel", err)
			return nil
		}
		printChannel(out, ch, ctx.Int("limit"))
	default:
		v, err := c.Video(bg, d.URL)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, "info", "video", err)
			return nil
		}
		printVideo(out, v)
	}
	return nil
}

func printVideo(w io.Writer, v *tubelib.VideoInfo) {
	fmt.Fprintf(w, `
Video Info
Title`+"\t"+`: %s
Uploader`+"\t"+`: %s
Duration`+"\t"+`: %s
Uploaded`+"\t"+`: %s
Views`+"\t"+`: %s
Platform`+"\t"+`: %s
URL`+"\t"+`: %s
`,
		v.Title, v.Uploader,
		cmdCommon.FormatDuration(v.Duration),
		cmdCommon.FormatUploadDate(v.UploadDate),
		cmdCommon.FormatCount(v.ViewCount),
		v.Platform, v.URL,
	)
	if len(v.Formats) == 0 {
		return
	}
	rows := make([][]string, 0, len(v.Formats))
	for _, f := range v.Formats {
		rows = append(rows, []string{f.FormatID, f.Ext, f.Resolution, cmdCommon.FormatBytes(f.Filesize)})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, cmdCommon.RenderTable([]string{"Format", "Ext", "Resolution", "Size"}, rows))
}

func entryRows(videos []tubelib.VideoInfo, limit int) [][]string {
	n := len(videos)
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		v := videos[i]
		rows[i] = []string{
			fmt.Sprint(i + 1),
			cmdCommon.Truncate(v.Title, 50),
			cmdCommon.FormatDuration(v.Duration),
			v.URL,
		}
	}
	return rows
}

func printEntries(w io.Writer, videos []tubelib.VideoInfo, limit int) {
	if len(videos) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, cmdCommon.RenderTable([]string{"#", "Title", "Length", "URL"}, entryRows(videos, limit)))
	if limit > 0 && len(videos) > limit {
		fmt.Fprintf(w, "... and %d more\n", len(videos)-limit)
	}
}

func printPlaylist(w io.Writer, p *tubelib.PlaylistInfo, limit int) {
	fmt.Fprintf(w, `
Playlist Info
Title`+"\t"+`: %s
Uploader`+"\t"+`: %s
Videos`+"\t"+`: %d
URL`+"\t"+`: %s
`, p.Title, p.Uploader, p.VideoCount, p.URL)
	if d := strings.TrimSpace(p.Description); d != "" {
		fmt.Fprintf(w, "\n%s\n", cmdCommon.Truncate(d, 200))
	}
	printEntries(w, p.Videos, limit)
}

func printChannel(w io.Writer, ch *tubelib.ChannelInfo, limit int) {
	fmt.Fprintf(w, `
Channel Info
Name`+"\t"+`: %s
ID`+"\t"+`: %s
Videos`+"\t"+`: %d
URL`+"\t"+`: %s
`, ch.Name, ch.ID, len(ch.Videos), ch.URL)
	printEntries(w, ch.Videos, limit)
}
