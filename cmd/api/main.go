package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"causebook.org/internal/auth"
	"causebook.org/internal/config"
	"causebook.org/internal/httpapi"
	"causebook.org/internal/obs"
	"causebook.org/internal/pledge"
	"causebook.org/internal/store/pg"
	"causebook.org/internal/stream"
)

var version = "0.3.1"

func main() {
	_ = godotenv.Load()

	cfg, err := config.ParseEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, "")

	var (
		entityStore pledge.EntityStore
		userStore   auth.UserStore
		probe       httpapi.ReadyProbe
		pgStore     *pg.Store
	)
	if cfg.PGDSN != "" {
		pgStore, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		entityStore = pgStore
		userStore = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Print("CAUSEBOOK_PG_DSN not set, using in-memory stores")
		entityStore = pledge.NewInMemory()
		userStore = auth.NewMemoryStore()
	}

	users, err := auth.NewUsers(userStore)
	if err != nil {
		log.Fatalf("users: %v", err)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := users.EnsureSuperuser(bootCtx, cfg.SuperUser, cfg.SuperEmail, cfg.SuperPassword); err != nil {
		log.Fatalf("superuser bootstrap: %v", err)
	}
	cancelBoot()

	api := httpapi.New(httpapi.Options{
		Store:     entityStore,
		Users:     users,
		Events:    stream.New(),
		Ready:     probe,
		Version:   version,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting causebook-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
