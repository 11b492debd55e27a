package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("matchctl failed")
		os.Exit(1)
	}
}
