package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/civic-rag-backend/config"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/scheduler"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/retrieval"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/storage/postgres"
)

const serviceName = "civic-rag-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.SetDebug(cfg.DebugLogging())
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      postgres.DSN(&cfg.Database),
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	docs := retrieval.NewPGStore(pool, cfg.LLM.EmbeddingDims)
	if err := docs.EnsureSchema(ctx); err != nil {
		log.Fatalf("documents schema: %v", err)
	}

	cacheStore, err := bootstrap.OpenCacheStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cacheStore.Close()

	client, err := bootstrap.NewLLMClient(cfg.LLM)
	if err != nil {
		log.Fatalf("llm: %v", err)
	}
	cache := bootstrap.NewEmbeddingCache(cfg, cacheStore.Store, client)
	svc := bootstrap.NewSearchService(cfg, client, cache, docs)

	sched := scheduler.NewScheduler()
	if err := sched.AddMetricsReport(cfg.Scheduler.MetricsSpec); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:   serviceName,
		Version:       cfg.App.Version,
		CORSOrigins:   cfg.Server.CORSOrigins,
		DB:            pool,
		Redis:         cacheStore.Redis,
		SearchService: svc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("%s %s listening on :%s (env=%s, llm=%s)", serviceName, cfg.App.Version, cfg.Server.Port, cfg.App.Environment, cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	sched.Stop(shutdownCtx)
}
