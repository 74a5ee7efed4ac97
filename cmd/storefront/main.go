package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	httpapi "storefront/internal/http"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/media"
	"storefront/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	logFile := applog.Setup(cfg.LogFile)
	defer logFile.Close()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := repos.SeedIfEmpty(ctx, db)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
	}

	images, err := media.New(cfg.ImagesDir)
	if err != nil {
		log.Fatal(err)
	}
	files, err := media.New(cfg.UploadsDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[static] /img/productos -> %s", images.Dir())
	log.Printf("[static] /uploads       -> %s", files.Dir())

	deps := handlers.NewDeps(db, cfg, images, files)
	app := httpapi.NewApp(cfg, db, deps)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Println("[server] shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] %v", err)
	}
}
