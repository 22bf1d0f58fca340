// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/platformbuilds/sfcollector/internal/config"
	"github.com/platformbuilds/sfcollector/internal/exporters/otlp"
	"github.com/platformbuilds/sfcollector/internal/selftelemetry"
	"github.com/platformbuilds/sfcollector/internal/sink"
	"github.com/platformbuilds/sfcollector/internal/storage"
	"github.com/platformbuilds/sfcollector/internal/storage/solidfire"
	"github.com/platformbuilds/sfcollector/internal/storagedef"
	"github.com/platformbuilds/sfcollector/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the command line. Only flags set explicitly override the
// config file.
type options struct {
	configPath  string
	showVersion bool

	solidfire  string
	username   string
	password   string
	timeout    int
	graphite   string
	port       int
	metricRoot string
	logFile    string

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("sfcollector", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "path to config yaml")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")

	for _, name := range []string{"s", "solidfire"} {
		fs.StringVar(&o.solidfire, name, "", "hostname of SolidFire array from which metrics should be collected")
	}
	for _, name := range []string{"u", "username"} {
		fs.StringVar(&o.username, name, config.DefaultUsername, "username for SolidFire array")
	}
	for _, name := range []string{"p", "password"} {
		fs.StringVar(&o.password, name, config.DefaultPassword, "password for SolidFire array (or "+config.PasswordEnv+")")
	}
	for _, name := range []string{"o", "timeout"} {
		fs.IntVar(&o.timeout, name, int(config.DefaultTimeout/time.Second), "timeout in seconds for SolidFire API calls")
	}
	for _, name := range []string{"g", "graphite"} {
		fs.StringVar(&o.graphite, name, config.DefaultGraphiteHost, `hostname of Graphite server; "debug" logs metrics instead`)
	}
	for _, name := range []string{"t", "port"} {
		fs.IntVar(&o.port, name, config.DefaultGraphitePort, "Graphite port")
	}
	for _, name := range []string{"m", "metricroot"} {
		fs.StringVar(&o.metricRoot, name, sink.DefaultMetricRoot, "metric root")
	}
	for _, name := range []string{"l", "logfile"} {
		fs.StringVar(&o.logFile, name, "", "log file; console output is disabled when set")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func (o *options) isSet(names ...string) bool {
	for _, n := range names {
		if o.set[n] {
			return true
		}
	}
	return false
}

// apply overlays explicitly set flags onto cfg.
func (o *options) apply(cfg *config.Config) {
	if o.isSet("s", "solidfire") {
		cfg.SolidFire.Address = o.solidfire
	}
	if o.isSet("u", "username") {
		cfg.SolidFire.Username = o.username
	}
	if o.isSet("p", "password") {
		cfg.SolidFire.Password = o.password
	}
	if o.isSet("o", "timeout") {
		cfg.SolidFire.Timeout = time.Duration(o.timeout) * time.Second
	}
	if o.isSet("g", "graphite") {
		if o.graphite == string(sink.ModeDebug) {
			cfg.Sink.Mode = sink.ModeDebug
		} else {
			cfg.Sink.Mode = sink.ModeGraphite
			cfg.Sink.Graphite.Host = o.graphite
		}
	}
	if o.isSet("t", "port") {
		cfg.Sink.Graphite.Port = o.port
	}
	if o.isSet("m", "metricroot") {
		cfg.Sink.MetricRoot = o.metricRoot
	}
	if o.isSet("l", "logfile") {
		cfg.Log.File = o.logFile
	}
}

func loadConfig(o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	o.apply(cfg)
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, closeLog, err := buildLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeLog()

	otel.SetTextMapPropagator(propagation.TraceContext{})
	if cfg.Tracing.Enabled {
		providers, err := otlp.New(ctx, otlp.Options{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version.Version(),
			OTLP:           cfg.Tracing.OTLP,
			Logs:           cfg.Tracing.ExportLogs,
		})
		if err != nil {
			log.Error("failed to set up tracing", "error", err)
			return 1
		}
		defer shutdownWithTimeout(providers.Shutdown)
		otel.SetTracerProvider(providers.Trace)
		if providers.Log != nil {
			log = slog.New(otlp.NewFanoutHandler(log.Handler(), providers.Log))
		}
	}
	slog.SetDefault(log)

	if err := collect(ctx, cfg, log); err != nil {
		log.Error("collector stopped", "error", storagedef.Describe(err))
		return 1
	}
	return 0
}

// collect wires the sink, Element client and manager and blocks until ctx
// is done or the cluster cannot be reached.
func collect(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info(version.String())

	out, err := sink.New(ctx, cfg.Sink, log)
	if err != nil {
		return storagedef.General("sink", err)
	}

	metrics := selftelemetry.NewMetrics(cfg.SelfTelemetry.Namespace)

	log.Info("Metrics Collection for array: " + cfg.SolidFire.Address)
	client, err := solidfire.NewClient(solidfire.ClientConfig{
		Address:    cfg.SolidFire.Address,
		Username:   cfg.SolidFire.Username,
		Password:   cfg.SolidFire.Password,
		APIVersion: cfg.SolidFire.APIVersion,
		Timeout:    cfg.SolidFire.Timeout,
		VerifySSL:  cfg.SolidFire.VerifySSL,
		TLS:        cfg.SolidFire.TLS,
	}, log)
	if err != nil {
		_ = out.Close(ctx)
		return err
	}
	client.SetObserver(metrics.APICall)

	collector := solidfire.NewCollector(solidfire.CollectorConfig{
		Name:            cfg.Collector.Name,
		AccountCacheTTL: cfg.Collector.AccountCacheTTL,
		ParallelFetch:   cfg.Collector.ParallelFetch,
	}, client, out, log)

	mgr := storage.NewManager(storage.Config{CollectInterval: cfg.Collector.Interval},
		[]storagedef.Collector{collector}, metrics, log)
	defer shutdownWithTimeout(mgr.Close)

	if cfg.SelfTelemetry.Enabled {
		srv := selftelemetry.NewServer(cfg.SelfTelemetry.Listen, metrics, mgr, log)
		if err := srv.Start(); err != nil {
			return storagedef.General("self-telemetry", err)
		}
		defer shutdownWithTimeout(srv.Shutdown)
	}

	return mgr.Run(ctx)
}

func shutdownWithTimeout(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = fn(ctx)
}
