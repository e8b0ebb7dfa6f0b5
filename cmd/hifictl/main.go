// Command hifictl is the unified hi-fi control bridge daemon: it
// unifies Roon, Lyrion/Slim, HQPlayer-protocol DSP instances, and
// UPnP/OpenHome renderers behind one HTTP+SSE surface.
package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/bridgecfg"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/hqp"
	"github.com/muness/unified-hifi-control/internal/httpapi"
	"github.com/muness/unified-hifi-control/internal/lmsadapter"
	"github.com/muness/unified-hifi-control/internal/openhomeadapter"
	"github.com/muness/unified-hifi-control/internal/roonadapter"
	"github.com/muness/unified-hifi-control/internal/upnpadapter"
	"github.com/muness/unified-hifi-control/internal/zeroconf"
	"github.com/muness/unified-hifi-control/internal/zone"
)

const shutdownGrace = 10 * time.Second

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to a YAML configuration file (optional; HIFICTL_ env vars always apply)")
		debug      = pflag.BoolP("debug", "d", false, "enable debug logging")
		advertise  = pflag.Bool("advertise", false, "advertise the HTTP surface over mDNS as an _http._tcp service named after the host")
	)
	pflag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := bridgecfg.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := events.New()
	agg := zone.NewAggregator(bus)
	defer agg.Close()

	coord := adapter.NewCoordinator(bus)
	registerAdapters(coord, cfg, bus, agg)

	if err := coord.Start(ctx, cfg.Enabled); err != nil {
		slog.Error("coordinator failed to start", "err", err)
		os.Exit(1)
	}

	var zc *zeroconf.Service
	if *advertise {
		hostname, _ := os.Hostname()
		zc = zeroconf.New(hostname, addrPort(cfg.HTTPAddr), coord.ActivePrefixes())
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf advertisement failed", "err", err)
			}
		}()
	}

	watcher, err := watchConfig(*configPath, coord, ctx, zc)
	if err != nil {
		slog.Warn("configuration hot-reload disabled", "err", err)
	}
	_ = watcher

	router := httpapi.NewRouter(agg, coord, bus)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams never time out a write
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("hifictl listening", "addr", cfg.HTTPAddr, "enabled", cfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutCancel()

	if err := coord.Shutdown(shutCtx, shutdownGrace); err != nil {
		slog.Warn("adapter shutdown error", "err", err)
	}
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// registerAdapters associates every known adapter prefix with the
// factory that builds it from cfg, regardless of which are enabled —
// Coordinator.Start only instantiates the ones cfg.Enabled names, and
// SetEnabled can bring up any registered-but-disabled prefix later on a
// config reload (spec.md §4.4).
func registerAdapters(coord *adapter.Coordinator, cfg *bridgecfg.Config, bus *events.Bus, agg *zone.Aggregator) {
	coord.Register("hqp", func() adapter.Logic {
		return hqp.NewLogic(cfg.HQP.Host, bus, agg)
	})
	coord.Register("lms", func() adapter.Logic {
		return lmsadapter.NewLogic(cfg.LMS.Host, cfg.LMS.Port, bus, agg)
	})
	coord.Register("roon", func() adapter.Logic {
		return roonadapter.NewLogic(cfg.Roon.Host, cfg.Roon.Port, bus, agg)
	})
	coord.Register("upnp", func() adapter.Logic {
		return upnpadapter.NewLogic(bus, agg)
	})
	coord.Register("openhome", func() adapter.Logic {
		return openhomeadapter.NewLogic(bus, agg)
	})
}

// watchConfig starts a bridgecfg.Watcher, if configPath is set, that
// pushes enabled/disabled diffs straight into coord.SetEnabled as they
// arrive. A file-less configuration (env vars only) has nothing to
// watch, which is not an error. When zc is non-nil (the bridge was
// started with --advertise), every change also refreshes the mDNS TXT
// record so the advertised adapter set never goes stale.
func watchConfig(configPath string, coord *adapter.Coordinator, ctx context.Context, zc *zeroconf.Service) (*bridgecfg.Watcher, error) {
	if configPath == "" {
		return nil, nil
	}
	w, err := bridgecfg.NewWatcher(configPath)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(prefix string, enabled bool) {
		if err := coord.SetEnabled(ctx, prefix, enabled); err != nil {
			slog.Error("failed to apply config change", "prefix", prefix, "enabled", enabled, "err", err)
			return
		}
		if zc != nil {
			if err := zc.UpdateTXT(coord.ActivePrefixes()); err != nil {
				slog.Warn("zeroconf TXT update failed", "err", err)
			}
		}
	})
	return w, nil
}

// addrPort extracts the numeric port from a ":8080"-style listen
// address, defaulting to 80 if it can't be parsed.
func addrPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 80
	}
	return port
}
