// Package server implements the entry point for running a pinmux server.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.viam.com/utils"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/config"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/web"
)

const shutdownTimeout = 5 * time.Second

// Arguments for the command.
type Arguments struct {
	ConfigFile string            `flag:"0,required,usage=pinmux config file"`
	Debug      bool              `flag:"debug,usage=enable debug logging"`
	Port       utils.NetPortFlag `flag:"port,usage=port to listen on; overrides the config"`
	LogFile    string            `flag:"log-file,usage=also write logs to this file; rotated by size"`
	NoWatch    bool              `flag:"no-watch,usage=do not reload the config when the file changes"`
}

// RunServer is an entry point to starting the pinmux server that can be called by main in a code
// sample or otherwise be used to initialize the server.
func RunServer(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger.SetLevel(zapcore.DebugLevel)
	}
	if argsParsed.LogFile != "" {
		fileLogger, closer, fileErr := logging.WithFileOutput(logger, argsParsed.LogFile)
		if fileErr != nil {
			return fileErr
		}
		defer func() {
			err = multierr.Append(err, closer.Close())
		}()
		logger = fileLogger
	}

	cfg, err := config.Read(ctx, argsParsed.ConfigFile, logger)
	if err != nil {
		return err
	}
	if argsParsed.Port != 0 {
		cfg.Web.Port = int(argsParsed.Port)
	}
	logging.UpdateLoggerRegistry(cfg.Log, logger)

	if err := pinmux.RegisterViews(); err != nil {
		return errors.Wrap(err, "failed to register metric views")
	}

	manager := pinmux.NewManager(logger.Sublogger("devices"))
	if err := manager.ProbeAll(ctx, cfg.Devices); err != nil {
		// A device that fails to initialize is left out; the rest keep working.
		logger.Errorw("some pinmux devices failed to initialize", "error", err)
	}
	logger.Infow("pinmux devices ready", "devices", manager.Names())

	if !argsParsed.NoWatch {
		watcher, watchErr := config.NewWatcher(ctx, argsParsed.ConfigFile, logger)
		if watchErr != nil {
			return watchErr
		}
		watchDone := make(chan struct{})
		watchCtx, cancelWatch := context.WithCancel(ctx)
		utils.PanicCapturingGo(func() {
			defer close(watchDone)
			watchConfig(watchCtx, watcher, cfg, manager, logger)
		})
		defer func() {
			cancelWatch()
			<-watchDone
			err = multierr.Append(err, watcher.Close())
		}()
	}

	listener, err := net.Listen("tcp", cfg.Web.Address())
	if err != nil {
		return err
	}
	return serve(ctx, listener, newHandler(cfg.Web, manager, logger), logger)
}

func newHandler(conf config.WebConfig, manager *pinmux.Manager, logger logging.Logger) http.Handler {
	handler := web.NewHandler(manager, logger.Sublogger("web"))
	if conf.AllowCORS {
		handler = cors.AllowAll().Handler(handler)
	}
	return handler
}

// watchConfig applies every config the watcher delivers until ctx is done.
func watchConfig(ctx context.Context, watcher config.Watcher, current *config.Config, manager *pinmux.Manager, logger logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-watcher.Config():
			diff, err := config.DiffConfigs(*current, *next)
			if err != nil {
				logger.CErrorw(ctx, "failed to diff configs", "error", err)
				continue
			}
			reconfigure(ctx, manager, diff, logger)
			current = next
		}
	}
}

// reconfigure brings the manager in line with diff.Right. Removed devices are dropped, modified
// ones are probed again from scratch and added ones are probed.
func reconfigure(ctx context.Context, manager *pinmux.Manager, diff *config.Diff, logger logging.Logger) {
	if !diff.LogEqual {
		logging.UpdateLoggerRegistry(diff.Right.Log, logger)
	}
	if !diff.WebEqual {
		logger.CWarnw(ctx, "web config changes take effect after a restart")
	}
	if diff.DevicesEqual {
		return
	}
	logger.CInfow(ctx, "pinmux devices changed", "diff", diff.String())

	for _, conf := range diff.Removed {
		manager.Remove(conf.Name)
	}
	toProbe := make([]pinmux.DeviceConfig, 0, len(diff.Modified)+len(diff.Added))
	for _, conf := range diff.Modified {
		manager.Remove(conf.Name)
		toProbe = append(toProbe, conf)
	}
	toProbe = append(toProbe, diff.Added...)
	if err := manager.ProbeAll(ctx, toProbe); err != nil {
		logger.CErrorw(ctx, "some pinmux devices failed to initialize", "error", err)
	}
	logger.CInfow(ctx, "pinmux devices ready", "devices", manager.Names())
}

// serve runs an HTTP server on listener until ctx is done.
func serve(ctx context.Context, listener net.Listener, handler http.Handler, logger logging.Logger) error {
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second * 5,
	}

	serveErr := make(chan error, 1)
	utils.PanicCapturingGo(func() {
		logger.Infow("serving pinmux control surface", "address", listener.Addr().String())
		serveErr <- httpServer.Serve(listener)
	})

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
