package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/inlet-data/inlet/constants"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var instance zerolog.Logger

func init() {
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	instance = zerolog.New(console).With().Timestamp().Logger()
}

// Init attaches a rotated file sink next to the console writer. The log
// directory comes from the CONFIG_FOLDER viper key; Init before that key is
// set keeps console-only logging.
func Init() {
	folder := viper.GetString(constants.ConfigFolder)
	if folder == "" {
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(folder, "logs", "inlet.log"),
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	instance = zerolog.New(zerolog.MultiLevelWriter(console, fileWriter)).With().Timestamp().Logger()
}

func Debug(v ...any) {
	instance.Debug().Msg(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	instance.Debug().Msgf(format, v...)
}

func Info(v ...any) {
	instance.Info().Msg(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	instance.Info().Msgf(format, v...)
}

func Warn(v ...any) {
	instance.Warn().Msg(fmt.Sprint(v...))
}

func Warnf(format string, v ...any) {
	instance.Warn().Msgf(format, v...)
}

func Error(v ...any) {
	instance.Error().Msg(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	instance.Error().Msgf(format, v...)
}

func Fatal(v ...any) {
	instance.Fatal().Msg(fmt.Sprint(v...))
}

func Fatalf(format string, v ...any) {
	instance.Fatal().Msgf(format, v...)
}

// StatsLogger periodically logs ingestion stats until ctx is cancelled.
// The callback returns queue depth and the active job's current/total
// record counters.
func StatsLogger(ctx context.Context, stats func() (queued, current, total int64)) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				queued, current, total := stats()
				Infof("stats: queued=%d current=%d total=%d", queued, current, total)
			}
		}
	}()
}
