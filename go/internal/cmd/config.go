package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/config"
)

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("unknown LOG_LEVEL, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// loadStyle falls back to the built-in catalogue when the YAML file cannot be used.
func loadStyle(path string) *config.StyleCatalog {
	catalog, err := config.LoadStyleCatalog(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not load style config, using defaults")
		return config.DefaultStyleCatalog()
	}
	return catalog
}
