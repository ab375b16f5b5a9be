package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/juev/textsync/internal/server"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const logLevelEnv = "TEXTSYNC_LOG_LEVEL"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("textsync-lsp %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return
	}

	logger, err := newLogger(os.Getenv(logLevelEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "textsync-lsp: %v\n", err)
		os.Exit(2)
	}

	code := run(context.Background(), logger)
	_ = logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, logger *zap.Logger) int {
	server.Version = Version
	srv := server.NewServer(logger)

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)

	client := protocol.ClientDispatcher(conn, logger)
	srv.SetClient(client)

	conn.Go(ctx, srv.Handler())
	logger.Info("serving on stdio", zap.String("version", Version))

	select {
	case <-srv.Done():
		_ = conn.Close()
		return srv.ExitCode()
	case <-conn.Done():
		if err := conn.Err(); err != nil {
			logger.Error("connection closed", zap.Error(err))
			return 1
		}
		return 0
	}
}

// newLogger writes JSON to stderr; stdout carries the protocol.
func newLogger(level string) (*zap.Logger, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "off" {
		return zap.NewNop(), nil
	}
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("%s: %w", logLevelEnv, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	return nil
}
