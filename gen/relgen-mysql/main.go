package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stephenafamo/relgen/gen"
	helpers "github.com/stephenafamo/relgen/gen/relgen-helpers"
	"github.com/stephenafamo/relgen/gen/relgen-mysql/driver"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	app := &cli.App{
		Name:      "relgen-mysql",
		Usage:     "Generate models and relationships from your MySQL database",
		UsageText: "relgen-mysql [-c FILE] [-v]",
		Version:   helpers.Version(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   helpers.DefaultConfigPath,
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log every resolved relationship",
			},
		},
		Action: run,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	config, driverConfig, err := helpers.GetConfigFromFile[driver.Config](c.String("config"), "mysql")
	if err != nil {
		return err
	}

	logger, err := helpers.NewLogger(c.Bool("verbose"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	state := &gen.State{
		Config:  config,
		Outputs: gen.DefaultOutputs(config),
		Logger:  logger,
	}

	return gen.Run(c.Context, state, driver.New(driverConfig))
}
