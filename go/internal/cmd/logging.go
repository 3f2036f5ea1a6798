package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the global logger. The returned cleanup closes
// the rotating file, if any.
func setupLogging(config *Config) (func(), error) {
	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if config.Log.File == "" {
		log.Logger = log.Output(console)
		return func() {}, nil
	}

	file := &lumberjack.Logger{
		Filename:   config.Log.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).With().Timestamp().Logger()
	return func() { _ = file.Close() }, nil
}
