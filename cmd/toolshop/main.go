package main

import (
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/toolshop-apitest/internal/config"
	"github.com/jrsteele09/toolshop-apitest/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

const (
	flagBaseURL  = "base-url"
	flagEmail    = "email"
	flagPassword = "password"
	flagTimeout  = "timeout"
	flagLogLevel = "log-level"
	flagStrict   = "strict-server-errors"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if err := newApp(config.New()).Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("toolshop")
	}
}

func newApp(cfg config.Config) *cli.App {
	return &cli.App{
		Name:    "toolshop",
		Usage:   "Exercise the Toolshop API authentication flow",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagBaseURL, Usage: "API root", EnvVars: []string{"BASE_URL"}, Value: cfg.GetBaseURL()},
			&cli.StringFlag{Name: flagEmail, Usage: "login email", EnvVars: []string{"ADMIN_EMAIL"}, Value: cfg.GetAdminEmail()},
			&cli.StringFlag{Name: flagPassword, Usage: "login password", EnvVars: []string{"ADMIN_PASSWORD"}, Value: cfg.GetAdminPassword()},
			&cli.DurationFlag{Name: flagTimeout, Usage: "per request timeout", EnvVars: []string{"REQUEST_TIMEOUT"}, Value: cfg.GetRequestTimeout()},
			&cli.StringFlag{Name: flagLogLevel, Usage: "zerolog level", EnvVars: []string{"LOG_LEVEL"}, Value: cfg.GetLogLevel()},
			&cli.BoolFlag{Name: flagStrict, Usage: "surface 5xx refresh responses instead of logging in again", EnvVars: []string{"STRICT_SERVER_ERRORS"}},
		},
		Before: func(c *cli.Context) error {
			logging.Setup(cfg.GetEnv(), c.String(flagLogLevel))
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(cfg),
			refreshCommand(cfg),
			ensureCommand(cfg),
			meCommand(cfg),
			stubCommand(cfg),
		},
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func expiryString(t time.Time, ok bool) string {
	if !ok {
		return "unknown"
	}
	return t.Format(time.RFC3339)
}
