package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config    string `short:"c" default:"scorepad.hcl" type:"path" help:"Path to HCL config file"`
	Database  string `help:"SQLite database path (overrides config)"`
	Debug     bool   `help:"Enable debug logging"`
	LogFormat string `default:"console" enum:"console,json" help:"Log output format (console or json)"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the HTTP and live entry server"`
	Game    GameCmd          `cmd:"" help:"Create, end, delete and list games"`
	Round   RoundCmd         `cmd:"" help:"Record a single round"`
	Report  ReportCmd        `cmd:"" help:"Show point reports"`
	History HistoryCmd       `cmd:"" help:"Export and inspect round history files"`
	Profile ProfileCmd       `cmd:"" help:"Manage player profiles"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("scorepad"),
		kong.Description("Score keeper for four-player zero-sum card games"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
