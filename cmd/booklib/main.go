package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/book-library-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var version = "dev"

type cli struct {
	Dev     bool             `help:"Run against an in-process development API with a demo account."`
	Debug   bool             `help:"Enable debug logging."`
	Version kong.VersionFlag `help:"Print the version and exit."`
}

var errPanicRecovered = errors.New("panic recovered")

func main() {
	var flags cli
	kong.Parse(&flags,
		kong.Name("booklib"),
		kong.Description("Interactive client for the book-library API."),
		kong.Vars{"version": version},
	)

	for {
		err := run(flags)
		if err == nil {
			break
		}
		if !errors.Is(err, errPanicRecovered) {
			log.Fatal().Err(err).Msg("booklib stopped")
		}
		log.Error().Err(err).Msg("restarting")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("booklib stopped")
}

func run(flags cli) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errPanicRecovered
		}
	}()

	c := config.New()
	setupLogging(c.GetLogLevel(), flags.Debug)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(c, flags.Dev)
	if err != nil {
		return err
	}
	defer a.close()

	if a.sessions.Resume() {
		log.Info().Msg("resumed stored session")
	}

	err = runShell(ctx, os.Stdin, os.Stdout, a)
	a.shutdown()
	return err
}

func setupLogging(level string, debugMode bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debugMode {
		lvl = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
