package main

import (
	"context"
	"flag"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/storage/postgres"
)

func main() {
	var (
		direction = flag.String("direction", "up", "направление миграции: up, down или status")
		steps     = flag.Int("steps", 0, "число шагов (0 — все)")
		dsn       = flag.String("dsn", "", "строка подключения к PostgreSQL (по умолчанию ORDERS_POSTGRES__DSN)")
	)
	flag.Parse()

	if *dsn == "" {
		*dsn = os.Getenv("ORDERS_POSTGRES__DSN")
	}
	if *dsn == "" {
		log.Fatal("dsn не задан: укажите -dsn или ORDERS_POSTGRES__DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.Open(ctx, *dsn)
	if err != nil {
		log.WithError(err).Fatal("не удалось подключиться к базе")
	}
	defer store.Close()

	switch *direction {
	case "up":
		if err := store.MigrateUp(ctx, *steps); err != nil {
			log.WithError(err).Fatal("миграция up не применилась")
		}
		log.Info("миграции применены")
	case "down":
		if *steps == 0 {
			*steps = 1 // откат всех миграций без явного steps слишком опасен
		}
		if err := store.MigrateDown(ctx, *steps); err != nil {
			log.WithError(err).Fatal("миграция down не применилась")
		}
		log.Info("миграции откатаны")
	case "status":
		current, pending, err := store.MigrationStatus(ctx)
		if err != nil {
			log.WithError(err).Fatal("не удалось получить статус миграций")
		}
		log.WithFields(log.Fields{
			"current": current,
			"pending": pending,
		}).Info("статус миграций")
	default:
		log.Fatalf("неизвестное направление %q", *direction)
	}
}
