package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/gitobj/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

func newLogger(w io.Writer, level, format string) (*zap.Logger, error) {
	zapLevel, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}
	var enc zapcore.Encoder
	switch strings.TrimSpace(strings.ToLower(format)) {
	case "text", "":
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format [text,json]: %q", format)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(zapLevel))), nil
}

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.TrimSpace(strings.ToLower(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level [debug,info,warn,error]: %q", level)
	}
}

// commandLogger builds the logger selected by the root's persistent flags.
// Commands run on their own, as in tests, get a no-op logger.
func commandLogger(cmd *cobra.Command) (*zap.Logger, error) {
	levelFlag := cmd.Flags().Lookup(logLevelFlag)
	formatFlag := cmd.Flags().Lookup(logFormatFlag)
	if levelFlag == nil || formatFlag == nil {
		return zap.NewNop(), nil
	}
	return newLogger(cmd.ErrOrStderr(), levelFlag.Value.String(), formatFlag.Value.String())
}

// openRepo opens the repository containing the working directory with a
// process-lifetime object cache.
func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	log, err := commandLogger(cmd)
	if err != nil {
		return nil, err
	}
	return repo.Open(".", repo.WithLogger(log), repo.WithCache(repo.NewCache()))
}
