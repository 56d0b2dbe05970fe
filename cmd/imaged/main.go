package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"imaged/internal/config"
	"imaged/internal/engine"
	"imaged/internal/httpapi"
	"imaged/internal/weights"
)

var version = "dev"

var (
	flagAddr           string
	flagConfig         string
	flagWeightsDir     string
	flagResultsDir     string
	flagDefaultVariant string
	flagDevice         int
	flagLogLevel       string
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var rootCmd = &cobra.Command{
	Use:   "imaged",
	Short: "Pipeline residency daemon for identity-preserved image generation",
	RunE:  runServe,
}

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the known pipeline variants",
	Run: func(cmd *cobra.Command, args []string) {
		for _, v := range engine.Variants() {
			marker := " "
			if v == engine.DefaultVariant {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, v)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Config{
		Addr:           flagAddr,
		WeightsDir:     flagWeightsDir,
		ResultsDir:     flagResultsDir,
		DefaultVariant: flagDefaultVariant,
		Device:         flagDevice,
		LogLevel:       flagLogLevel,
	}
	if flagConfig != "" {
		fileCfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// config file fills in whatever flags were left at their defaults
		cfg = mergeConfig(cmd, cfg, fileCfg)
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	variant, err := engine.ParseVariant(cfg.DefaultVariant)
	if err != nil {
		return fmt.Errorf("invalid default variant %q", cfg.DefaultVariant)
	}

	store, err := weights.Open(cfg.WeightsDir)
	if err != nil {
		return fmt.Errorf("open weight store: %w", err)
	}
	// Preflight the default variant's archives. Missing weights are not fatal
	// here; requests will get a 503 until they appear.
	prov := weights.LocalProvisioner{Store: store}
	if err := prov.EnsureLocal(context.Background(), string(variant)); err != nil {
		logger.Warn().Err(err).Str("variant", string(variant)).Msg("weight archives incomplete")
	}
	if addons, err := store.ListAddOns(); err == nil && len(addons) > 0 {
		logger.Info().Strs("addons", addons).Msg("optional add-on weights found")
	}

	eng, err := engine.NewWithConfig(engine.Config{
		Backend:        engine.NewRenderBackend(),
		Store:          store,
		ResultsDir:     cfg.ResultsDir,
		DefaultVariant: variant,
		Device:         cfg.Device,
		Logger:         &logger,
	})
	if err != nil {
		return err
	}

	httpapi.SetLogger(logger)
	if cfg.MaxBodyMB > 0 {
		httpapi.SetMaxBodyBytes(int64(cfg.MaxBodyMB) << 20)
	}
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(eng)}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("weights_dir", store.Root()).Str("default_variant", string(variant)).Msg("imaged listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		eng.Close()
		return err
	case <-stop:
	}

	logger.Info().Msg("shutting down")
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	// Close after the listener stops: drains the lane and frees the resident
	// pipeline's accelerator memory.
	eng.Close()
	return nil
}

// mergeConfig overlays the config file under any flag the user set explicitly.
func mergeConfig(cmd *cobra.Command, flags, file config.Config) config.Config {
	out := file
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("addr") || out.Addr == "" {
		out.Addr = flags.Addr
	}
	if set("weights-dir") || out.WeightsDir == "" {
		out.WeightsDir = flags.WeightsDir
	}
	if set("results-dir") || out.ResultsDir == "" {
		out.ResultsDir = flags.ResultsDir
	}
	if set("default-variant") || out.DefaultVariant == "" {
		out.DefaultVariant = flags.DefaultVariant
	}
	if set("device") {
		out.Device = flags.Device
	}
	if set("log-level") || out.LogLevel == "" {
		out.LogLevel = flags.LogLevel
	}
	return out
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagAddr, "addr", envOr("IMAGED_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	f.StringVar(&flagConfig, "config", envOr("IMAGED_CONFIG", ""), "Path to a yaml/json/toml config file")
	f.StringVar(&flagWeightsDir, "weights-dir", envOr("IMAGED_WEIGHTS_DIR", "~/models/infiniteyou"), "Root directory of the weight layout")
	f.StringVar(&flagResultsDir, "results-dir", envOr("IMAGED_RESULTS_DIR", "results"), "Directory where generated artifacts are saved")
	f.StringVar(&flagDefaultVariant, "default-variant", envOr("IMAGED_DEFAULT_VARIANT", string(engine.DefaultVariant)), "Pipeline variant used when requests omit one")
	f.IntVar(&flagDevice, "device", 0, "Accelerator device index")
	f.StringVar(&flagLogLevel, "log-level", envOr("IMAGED_LOG_LEVEL", "info"), "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(variantsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
