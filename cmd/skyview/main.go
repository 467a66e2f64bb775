package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Skyview/internal/assets"
	"Skyview/internal/config"
	"Skyview/internal/engine"
	"Skyview/internal/logger"
	"Skyview/internal/renderer"
	"Skyview/internal/viewer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	logLevel   string
	assetsRoot string
	watch      bool
	wireframe  bool
	noCulling  bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "skyview",
		Short:         "Fly around a glTF scene under a cycling skybox",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "skyview.toml", "TOML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level")
	flags.StringVar(&opts.assetsRoot, "assets", "", "asset root directory, overrides assets.root")
	flags.BoolVar(&opts.watch, "watch", false, "reload textures when their files change")
	flags.BoolVar(&opts.wireframe, "wireframe", false, "draw polygons as outlines")
	flags.BoolVar(&opts.noCulling, "no-culling", false, "disable frustum culling")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	// the level may come from the file, so start at info to report config problems
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Log.Error("Could not load configuration", zap.Error(err))
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if opts.assetsRoot != "" {
		cfg.Assets.Root = opts.assetsRoot
	}
	if opts.watch {
		cfg.Assets.Watch = true
	}
	if err := logger.InitWithLevel(cfg.Log.Level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := assets.NewServer(cfg.Assets.Root, cfg.Assets.Workers)
	defer server.Close()
	if cfg.Assets.Watch {
		go func() {
			if err := server.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Warn("Asset watching stopped", zap.Error(err))
			}
		}()
	}

	app := engine.NewApp(engine.WindowOptions{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
	}, renderer.NewOpenGLRenderer(server))
	app.SetDebugMode(opts.wireframe)
	app.SetFrustumCulling(!opts.noCulling)

	v, err := viewer.New(cfg, app.Scene, &app.Env, server, host{app})
	if err != nil {
		logger.Log.Error("Invalid cubemap catalog", zap.Error(err))
		return err
	}
	v.Register(app.Startup, app.Update)

	logger.Log.Info("Starting Skyview",
		zap.String("config", opts.configPath),
		zap.String("assets", cfg.Assets.Root),
		zap.Bool("watch", cfg.Assets.Watch))

	if err := app.Run(ctx); err != nil {
		logger.Log.Error("Viewer stopped", zap.Error(err))
		return err
	}
	return nil
}
