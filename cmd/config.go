package cmd

const DESCRIPTION = `
warptube is a download queue for online video. It keeps a persistent
queue in a background daemon and hands every download to yt-dlp, so
you can queue, pause, reorder and watch downloads from any terminal.
`

const (
	DaemonDescription = `The daemon command runs the warptube daemon in the
foreground. Client commands start it in the background
automatically when it is not running.
`

	AddDescription = `The add command queues one or more URLs for download.
All URLs are validated first; if any is rejected, nothing
is queued.
`

	ListDescription = `The list command displays the download queue in
order, with each job's status and progress.
`

	ControlDescription = `Job control commands take a job id (or a unique
prefix of one) as printed by the list command.
`

	MoveDescription = `The move command moves the job at queue position
<from> to position <to>. Positions start at 1.
`

	ClearDescription = `The clear command removes completed, failed and
cancelled jobs from the queue.
`

	InfoDescription = `The info command fetches metadata of a video,
playlist or channel without downloading it.
`

	WatchDescription = `The watch command shows live progress bars for the
queue until interrupted.
`

	DepsDescription = `The deps command checks that the external tools
used for downloading are installed.
`

	ConcurrencyDescription = `The concurrency command sets how many downloads
run at once (1 to 5).
`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
