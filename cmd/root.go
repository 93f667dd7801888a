package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/devidw/rem/internal/assets"
	"github.com/devidw/rem/internal/catalog"
	"github.com/devidw/rem/internal/config"
	"github.com/devidw/rem/internal/document"
	"github.com/devidw/rem/internal/server"
	"github.com/devidw/rem/internal/session"
)

var (
	addrFlag    string
	dataDirFlag string
)

func init() {
	rootCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Listen address (overrides REM_ADDR)")
	rootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data", "d", "", "Data directory (overrides REM_DATA_DIR)")
}

var rootCmd = &cobra.Command{
	Use:   "rem",
	Short: "rem: local persistence companion for the canvas editor",
	Long: `rem persists canvas-editor snapshots and uploaded assets to a local
data directory, serves them back over HTTP, and manages checkpoints of the
full document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addrFlag != "" {
			cfg.Addr = addrFlag
		}

		log, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		env, err := openEnv(cfg, log)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(cfg, env.Docs, env.Assets, env.Session, log)
		httpSrv := &http.Server{
			Addr:    cfg.Addr,
			Handler: srv.Handler(),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info("listening", zap.String("addr", cfg.Addr), zap.String("data", cfg.DataDir))
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// env bundles everything a command needs against one data directory.
type env struct {
	Catalog *catalog.Catalog
	Docs    *document.Store
	Assets  *assets.Store
	Session *session.Session
	log     *zap.Logger
}

func openEnv(cfg *config.Config, log *zap.Logger) (*env, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	cat, err := catalog.Open(filepath.Join(cfg.DataDir, "catalog.db"))
	if err != nil {
		return nil, err
	}

	fs := osfs.New(cfg.DataDir)
	docs, err := document.Open(fs, cat, cfg.SaveDebounce, log.Named("document"))
	if err != nil {
		_ = cat.Close()
		return nil, err
	}

	sess, err := session.New(docs, log.Named("session"))
	if err != nil {
		_ = docs.Close()
		_ = cat.Close()
		return nil, err
	}

	return &env{
		Catalog: cat,
		Docs:    docs,
		Assets:  assets.New(fs, cat, cfg.MaxAssetBytes, log.Named("assets")),
		Session: sess,
		log:     log,
	}, nil
}

func (e *env) Close() {
	if err := e.Docs.Close(); err != nil {
		e.log.Error("document close failed", zap.Error(err))
	}
	if err := e.Catalog.Close(); err != nil {
		e.log.Error("catalog close failed", zap.Error(err))
	}
}
