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

	"dispensecore/board"
	"dispensecore/config"
	"dispensecore/engine"
	"dispensecore/hub"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "dispenseboard.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("dispenseboard", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Hub client
	hubClient := hub.NewClient(cfg.Hub.BaseURL, cfg.Hub.Timeout.Std())
	if err := hubClient.Ping(); err == nil {
		log.Printf("dispenseboard: hub connected (%s)", cfg.Hub.BaseURL)
	} else {
		log.Printf("dispenseboard: hub not available (%v)", err)
	}

	// Engine
	eng := engine.New(engine.Config{
		Hub:          hubClient,
		PollInterval: cfg.Hub.PollInterval.Std(),
	})
	eng.Start()
	defer eng.Stop()

	// Web server
	srv := board.NewServer(eng, cfg.Web.SessionKey, log.Printf)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("dispenseboard: web server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("dispenseboard: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("dispenseboard: shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)

	log.Printf("dispenseboard: stopped")
}
