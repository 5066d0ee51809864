package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/forestwatch/deforestation-backend-go/internal/config"
	"github.com/forestwatch/deforestation-backend-go/internal/database"
	"github.com/forestwatch/deforestation-backend-go/internal/detection"
	"github.com/forestwatch/deforestation-backend-go/internal/pipeline"
	"github.com/forestwatch/deforestation-backend-go/internal/repository"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	imageID := flag.String("image", "", "source image id to process")
	flag.Parse()

	if *imageID == "" {
		log.Fatal("usage: pipeline -image <image_id> [-config <path>]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	validator, err := detection.LoadValidator(cfg.Detection.ModelPath)
	if err != nil {
		log.Fatal("Failed to load validator model: ", err)
	}
	log.Printf("validator loaded version=%s input_length=%d", validator.Version(), validator.InputLength())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(db, cfg, validator, nil)
	if _, err := p.Run(ctx, *imageID); err != nil {
		if errors.Is(err, repository.ErrImageAlreadyProcessed) {
			log.Printf("image already processed image_id=%s, nothing to do", *imageID)
			return
		}
		log.Printf("pass failed image_id=%s err=%q", *imageID, err)
		os.Exit(1)
	}
}
