package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	mongoMigration "clinagenda/internal/migrations/mongo"
	"clinagenda/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	seed := flag.Bool("seed", false, "insert demo professionals after migrating")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	defer cfg.GracefulShutdown()

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if *seed {
		if err := mongoMigration.RunSeed(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
	}
	fmt.Println("Migration completed successfully.")
}
