package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"polyglot/internal/app"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "polyglot",
		Usage:   "Convert documents, data and code between formats with an LLM",
		Version: app.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Write debug logs to stderr",
				EnvVars: []string{"POLYGLOT_VERBOSE"},
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the settings file",
				EnvVars: []string{"SETTINGS_PATH"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web UI API on a local port",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: "127.0.0.1:0",
						Usage: "Listen address (port 0 picks a free port)",
					},
				},
			},
			{
				Name:   "convert",
				Usage:  "Convert a file or stdin to another format",
				Action: convertAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Source format id or extension (inferred from --in when omitted)",
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Target format id or extension",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "in",
						Aliases: []string{"i"},
						Value:   "-",
						Usage:   "Input file, - for stdin",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file, stdout when omitted",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Provider kind (managed or openai_compatible)",
					},
					&cli.StringFlag{
						Name:  "api-key",
						Usage: "API key for the provider",
					},
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Base URL for an OpenAI-compatible endpoint",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Model name",
					},
				},
			},
			{
				Name:   "formats",
				Usage:  "List the supported formats",
				Action: formatsAction,
			},
		},
	}
}
