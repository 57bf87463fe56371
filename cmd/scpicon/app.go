package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/instrument-tool/scpicon/internal/audit"
	"github.com/instrument-tool/scpicon/internal/command"
	"github.com/instrument-tool/scpicon/internal/config"
	"github.com/instrument-tool/scpicon/internal/console"
	"github.com/instrument-tool/scpicon/internal/metrics"
	"github.com/instrument-tool/scpicon/internal/session"
	"github.com/instrument-tool/scpicon/internal/visa"
)

// app holds the components shared by the console-style subcommands.
type app struct {
	cfg           *config.Config
	session       *session.Session
	dispatcher    *command.Dispatcher
	audit         *audit.Logger
	metrics       *metrics.Metrics
	metricsServer *metrics.Server
	logFile       *lumberjack.Logger
	stopHangup    func()
}

// newApp loads the configuration and wires the session, dispatcher and
// their sinks. quiet discards diagnostics unless a log file is configured.
func newApp(configPath string, quiet bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.setupLogging(quiet)
	for _, w := range cfg.Warnings {
		log.Printf("Warning: %s", w)
	}

	var dispatcherOpts []command.DispatcherOption
	sessionOpts := []session.Option{
		session.WithTimeout(cfg.VISA.Timeout()),
		session.WithTermination(cfg.VISA.ReadTermination, cfg.VISA.WriteTermination),
	}

	if cfg.Audit.Enabled {
		a.audit, err = audit.NewLogger(cfg.Audit.Dir, cfg.Audit.Rotation())
		if err != nil {
			a.close()
			return nil, err
		}
		log.Printf("Audit log: %s", a.audit.GetFilePath())
		dispatcherOpts = append(dispatcherOpts, command.WithAuditLogger(a.audit))
	}

	if cfg.Metrics.Addr != "" {
		a.metrics = metrics.New()
		a.metricsServer = a.metrics.Serve(cfg.Metrics.Addr)
		dispatcherOpts = append(dispatcherOpts, command.WithMetrics(a.metrics))
		sessionOpts = append(sessionOpts, session.WithObserver(a.metrics.SetConnected))
	}

	if a.audit != nil || a.logFile != nil {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		stop := watchHangup(hup, a.rotateLogs)
		a.stopHangup = func() {
			signal.Stop(hup)
			stop()
		}
	}

	manager := visa.NewResourceManager(cfg.VISA.ManagerOptions()...)
	a.session = session.New(manager, sessionOpts...)

	env := &command.Env{Session: a.session, OutputDir: cfg.Console.OutputDir}
	a.dispatcher = command.NewDispatcher(command.NewDefaultRegistry(), env, dispatcherOpts...)
	return a, nil
}

func (a *app) setupLogging(quiet bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	switch {
	case a.cfg.Log.File != "":
		a.logFile = &lumberjack.Logger{
			Filename:   a.cfg.Log.File,
			MaxSize:    a.cfg.Log.MaxSizeMB,
			MaxBackups: a.cfg.Log.MaxBackups,
		}
		log.SetOutput(a.logFile)
	case quiet:
		log.SetOutput(io.Discard)
	default:
		log.SetOutput(os.Stderr)
	}
}

// watchHangup calls rotate for every signal on hup until the returned stop
// function is called.
func watchHangup(hup <-chan os.Signal, rotate func()) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-hup:
				rotate()
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// rotateLogs starts new audit and diagnostic log files.
func (a *app) rotateLogs() {
	if a.audit != nil {
		if err := a.audit.Rotate(); err != nil {
			log.Printf("Audit log rotation failed: %v", err)
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Rotate(); err != nil {
			log.Printf("Log rotation failed: %v", err)
		}
	}
}

// newConsole builds a console with the configured prompt and history.
func (a *app) newConsole(out io.Writer) *console.Console {
	opts := []console.Option{
		console.WithOutput(out),
		console.WithPrompt(a.cfg.Console.Prompt),
	}

	if path := a.cfg.Console.HistoryPath(); path != "" {
		history, err := console.LoadHistory(path, a.cfg.Console.HistoryLimit)
		if err != nil {
			log.Printf("History unavailable: %v", err)
		}
		opts = append(opts, console.WithHistory(history))
	}
	return console.New(a.dispatcher, opts...)
}

// close releases everything newApp opened. The session is closed by the
// console on exit and again here for the non-interactive paths.
func (a *app) close() {
	if a.stopHangup != nil {
		a.stopHangup()
		a.stopHangup = nil
	}

	if a.session != nil {
		a.session.Close()
	}

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
	}

	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			log.Printf("Audit log close error: %v", err)
		}
	}

	if a.logFile != nil {
		log.SetOutput(os.Stderr)
		a.logFile.Close()
	}
}
