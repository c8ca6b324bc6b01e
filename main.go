package main

import (
	"adaudit/cmd"
	"adaudit/internal/config"
	"adaudit/internal/db"
	"adaudit/internal/logger"
	"os"
	"path/filepath"
	"strconv"
	"time"

	stdlog "log"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		stdlog.Fatalf("error running the app: %v", err)
	}
}

func app() *cli.App {
	helpName := color.YellowString(filepath.Base(os.Args[0]))
	year := strconv.Itoa(time.Now().UTC().Year())

	app := &cli.App{
		Usage:       "Ad Creative Audit Service",
		HelpName:    helpName,
		Version:     "v0.1.0",
		Compiled:    time.Now().UTC(),
		Copyright:   "© " + year + " ADAUDIT",
		Description: "This application syncs ad creatives from connected accounts and orchestrates compliance audits.",
		Commands:    cmd.Commands,
		Before:      before,
	}

	app.Suggest = true
	return app
}

func before(c *cli.Context) error {
	stdlog.Print("Initializing application configuration")
	if err := config.InitConfig(); err != nil {
		stdlog.Fatalf("error loading config: %v", err)
		return err
	}

	logger.InitializeLogger()

	log.Info().Msg("Initializing database connection")
	if _, err := db.GetDB(); err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return err
	}

	return nil
}
