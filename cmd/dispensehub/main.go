package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"dispensecore/config"
	"dispensecore/dispatch"
	"dispensecore/messaging"
	"dispensecore/stockstate"
	"dispensecore/store"
	"dispensecore/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "dispensehub.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("dispensehub", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("dispensehub: database open (%s)", cfg.Database.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("dispensehub: redis not available (%v), running without cache", err)
	} else {
		log.Printf("dispensehub: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()
	defer redisClient.Close()

	// Stock state manager
	redisStore := stockstate.NewRedisStore(redisClient)
	stockMgr := stockstate.NewManager(db, redisStore)
	if err := stockMgr.SyncRedisFromSQL(); err != nil {
		log.Printf("dispensehub: stock cache sync: %v", err)
	}

	// Device channel
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("dispensehub: messaging connect failed (%v)", err)
	} else {
		log.Printf("dispensehub: messaging connected (%s)", cfg.Messaging.Backend)
	}
	defer msgClient.Close()

	// Dispatcher
	dispatcher := dispatch.NewDispatcher(db, msgClient, dispatch.NewLogEmitter(log.Printf), cfg.Messaging.CmdTopicPrefix, cfg.Messaging.EvtTopicPrefix)
	if err := dispatcher.Start(); err != nil {
		log.Printf("dispensehub: dispatcher start failed: %v", err)
	}

	// Web server
	handlers := www.NewHandlers(db, stockMgr, dispatcher, msgClient, cfg.Web.Rooms, log.Printf)
	handler := www.NewRouter(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("dispensehub: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("dispensehub: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("dispensehub: shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("dispensehub: stopped")
}
