package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"leadcrm-engine/internal/config"
	"leadcrm-engine/internal/events"
	"leadcrm-engine/internal/geocode"
	"leadcrm-engine/internal/httpapi"
	"leadcrm-engine/internal/scheduler"
	"leadcrm-engine/internal/secrets"
	"leadcrm-engine/internal/session"
	"leadcrm-engine/internal/store"
)

func main() {
	dataDir, err := dataDirFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		if err := config.OverlayMapping(&cfg, filepath.Join(dataDir, config.MappingFileName)); err != nil {
			return cfg, fmt.Errorf("mapping overlay: %w", err)
		}
		if cfg.App.DataDir == "" {
			cfg.App.DataDir = dataDir
		}
		cfg, vr := config.NormalizeAndValidate(cfg)
		for _, w := range vr.Warnings {
			log.Printf("[config] warning: %s", w)
		}
		if !vr.OK() {
			return cfg, errors.New("config validation failed:\n- " + strings.Join(vr.Errors, "\n- "))
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	storePath := cfg.StorePath()
	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(ctx, store.Options{
		Backend:  backend,
		RawPath:  cfg.RawPath(),
		Mapping:  cfg.Store.RawMapping,
		LockPath: storePath + ".lock",
	})
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			log.Fatalf("no data: put a scraped export at %s or a roster at %s", cfg.RawPath(), storePath)
		}
		log.Fatal(err)
	}
	if err := st.PersistErr(); err != nil {
		log.Printf("level=error msg=\"roster not saved\" err=%v (retrying every 30s, POST /roster/flush to retry now)", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[store] close: %v", err)
		}
	}()

	gc := geocode.New(geocode.Config{
		BaseURL:    cfg.Geocode.BaseURL,
		UserAgent:  cfg.Geocode.UserAgent,
		Timeout:    time.Duration(cfg.Geocode.TimeoutSeconds) * time.Second,
		RatePerSec: cfg.Geocode.RatePerSec,
	})
	if key, err := secrets.GetGeocoderKey(secrets.GeocoderKeyringAccount(cfg)); err == nil {
		gc.SetAPIKey(key)
	}

	hub := events.NewHub()
	sessions := session.NewRegistry()

	var reconcileStatus atomic.Value
	reconcileStatus.Store(httpapi.ReconcileStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		Store:           st,
		Sessions:        sessions,
		Geocoder:        gc,
		Hub:             hub,
		CfgVal:          &cfgVal,
		ReconcileStatus: &reconcileStatus,
		UserCfgPath:     userCfgPath,
		LoadCfg:         loadCfg,
		OnGeocoderKey:   gc.SetAPIKey,
	})

	// Bind to a predictable local port for now (simpler).
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (roster=%s)", addr, backend.Name())

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := shutdownToken()
	if err != nil {
		log.Fatal(err)
	}
	mux.Handle("/shutdown", httpapi.ShutdownHandler{
		Store: st,
		Token: token,
		Stop: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		},
	})
	fmt.Printf("SHUTDOWN_TOKEN=%s\n", token)

	stopJobs := scheduler.Start(ctx,
		scheduler.Job{
			Name:     "sessions",
			Interval: 10 * time.Minute,
			Task: func(context.Context) error {
				idle := time.Duration(cfgVal.Load().(config.Config).Sessions.IdleMinutes) * time.Minute
				if n := sessions.Prune(idle); n > 0 {
					log.Printf("[sessions] pruned=%d", n)
				}
				return nil
			},
		},
		scheduler.Job{
			Name:     "flush",
			Interval: 30 * time.Second,
			Task: func(ctx context.Context) error {
				if !st.Dirty() {
					return nil
				}
				return st.Persist(ctx)
			},
		},
	)
	defer stopJobs()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("serve: %v", err)
	}
	log.Printf("engine stopped")
}
