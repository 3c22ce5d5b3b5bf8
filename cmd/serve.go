package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/afrilearn/afriserver/internal/composer"
	"github.com/afrilearn/afriserver/internal/detector"
	"github.com/afrilearn/afriserver/internal/extractor"
	"github.com/afrilearn/afriserver/internal/pipeline"
	"github.com/afrilearn/afriserver/internal/resolver"
	"github.com/afrilearn/afriserver/internal/store"
	"github.com/afrilearn/afriserver/internal/translator"
	"github.com/afrilearn/afriserver/internal/validator"
	"github.com/afrilearn/afriserver/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server.

Endpoints:
  POST /api/translate-file        Translate an uploaded PDF/DOCX, return a DOCX
  POST /api/translate             Translate a text snippet
  GET  /api/languages             Supported target languages
  GET  /api/past-papers           List past papers (subject, grade, year, paperType filters)
  GET  /api/past-papers/file      Serve a past-paper binary (id or filePath, preview)
  POST /api/past-papers/upload    Store a new past paper
  POST /api/past-papers/:id/download  Record a completed download
  GET  /api/health                Database health and record counts

Every flag can also be set through the environment with the AFRISERVER_
prefix, e.g. AFRISERVER_LISTEN=:8080.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("config", "", "optional config file (yaml/toml/json)")
	flags.String("listen", ":3000", "address to listen on")
	flags.String("db", "./data/afriserver.db", "sqlite database path")
	flags.String("uploads-dir", "./uploads", "directory for transient uploads and outputs")
	flags.String("legacy-root", "./data/pdfs", "root directory for legacy past-paper URLs")
	flags.String("service", "mymemory", "translation service: google or mymemory")
	flags.String("google-credentials", "", "path to Google Cloud credentials JSON")
	flags.String("mymemory-email", "", "contact email for the MyMemory free tier")
	flags.Duration("pdf-timeout", extractor.DefaultPDFTimeout, "per-file PDF extraction timeout")
	flags.Int("max-chunk-chars", pipeline.DefaultMaxChunkChars, "largest text block sent to a provider")
	flags.Int64("max-upload-mb", 10, "upload size limit in megabytes")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	viper.SetEnvPrefix("AFRISERVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func runServe(ctx context.Context) error {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(viper.GetString("log-level")); err == nil {
		log.SetLevel(level)
	}
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	uploadsDir := viper.GetString("uploads-dir")
	legacyRoot := viper.GetString("legacy-root")
	dbPath := viper.GetString("db")

	for _, dir := range []string{uploadsDir, legacyRoot, filepath.Dir(dbPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	svc, err := buildTranslator()
	if err != nil {
		return err
	}

	det := detector.New()
	pipe := pipeline.New(
		extractor.New(viper.GetDuration("pdf-timeout")),
		svc,
		composer.New(),
		pipeline.Config{
			TempDir:       uploadsDir,
			MaxChunkChars: viper.GetInt("max-chunk-chars"),
			Recorder:      db,
			Detector:      det,
			Validator:     validator.NewWith(det),
			Logger:        log,
		},
	)

	srv := web.New(web.Config{
		UploadsDir:     uploadsDir,
		MaxUploadBytes: viper.GetInt64("max-upload-mb") << 20,
	}, pipe, svc, resolver.New(legacyRoot), db, log)

	listen := viper.GetString("listen")
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"listen":  listen,
			"service": svc.Name(),
			"version": version,
		}).Info("server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func buildTranslator() (translator.Service, error) {
	switch viper.GetString("service") {
	case "google":
		// Empty credentials path falls back to application default credentials.
		return translator.NewGoogleService(viper.GetString("google-credentials")), nil
	case "mymemory":
		return translator.NewMyMemoryService(viper.GetString("mymemory-email")), nil
	default:
		return nil, fmt.Errorf("unknown translation service %q", viper.GetString("service"))
	}
}
