package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/warptube/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var buildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	buildArgs = bArgs
	cliVersion = bArgs.Version
	app := cli.App{
		Name:                  "warptube",
		HelpName:              "warptube",
		Usage:                 "A download queue for online video.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "warptube <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "runs the download daemon",
				Description:        DaemonDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             runDaemon,
				Flags:              daemonFlags,
			},
			{
				Name:                   "add",
				Aliases:                []string{"a"},
				Usage:                  "queues urls for download",
				UsageText:              "add [options] <url>...",
				Description:            AddDescription,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 add,
				Flags:                  addFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "list",
				Aliases:            []string{"l", "ls"},
				Usage:              "displays the download queue",
				Description:        ListDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             list,
				Flags:              lsFlags,
			},
			{
				Name:               "pause",
				Usage:              "pauses a job",
				UsageText:          "pause <id>",
				Description:        ControlDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             pauseJob,
			},
			{
				Name:               "resume",
				Aliases:            []string{"r"},
				Usage:              "resumes a paused job",
				UsageText:          "resume <id>",
				Description:        ControlDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             resumeJob,
			},
			{
				Name:               "cancel",
				Aliases:            []string{"stop"},
				Usage:              "cancels a job",
				UsageText:          "cancel <id>",
				Description:        ControlDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             cancelJob,
			},
			{
				Name:               "remove",
				Aliases:            []string{"rm"},
				Usage:              "removes a finished job from the queue",
				UsageText:          "remove <id>",
				Description:        ControlDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             removeJob,
			},
			{
				Name:               "move",
				Aliases:            []string{"mv"},
				Usage:              "reorders the queue",
				UsageText:          "move <from> <to>",
				Description:        MoveDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             move,
			},
			{
				Name:               "clear",
				Aliases:            []string{"c"},
				Usage:              "removes finished jobs",
				Description:        ClearDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             clearFinished,
			},
			{
				Name:               "concurrency",
				Usage:              "sets how many downloads run at once",
				UsageText:          "concurrency <n>",
				Description:        ConcurrencyDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             concurrency,
			},
			{
				Name:               "info",
				Aliases:            []string{"i"},
				Usage:              "shows metadata of a video, playlist or channel",
				UsageText:          "info [options] <url>",
				Description:        InfoDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             info,
				Flags:              infoFlags,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "shows live download progress",
				Description:        WatchDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             watch,
				Flags:              watchFlags,
			},
			{
				Name:               "deps",
				Usage:              "checks external tools",
				Description:        DepsDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             deps,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of warptube",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
