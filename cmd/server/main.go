package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"waste-dispatch-service/internal/adapters/notify"
	"waste-dispatch-service/internal/adapters/repositories"
	"waste-dispatch-service/internal/api"
	"waste-dispatch-service/internal/config"
	"waste-dispatch-service/internal/dispatch"
	"waste-dispatch-service/internal/platform/db"
	"waste-dispatch-service/internal/ports"
	"waste-dispatch-service/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires the hotspot store and dispatch coordinator to the concrete
// collaborator adapters (postgres archive, redis notifier) and starts the
// HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	var sinks []ports.HotspotSink
	var notifiers []ports.RouteNotifier

	st := store.New()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := repositories.InitSchema(pg); err != nil {
			log.Fatal(err)
		}

		archive := repositories.NewPostgresArchive(pg)
		sinks = append(sinks, archive)
		notifiers = append(notifiers, archive)

		// Rebuild the zone index from archived zones so scoring is
		// correct from the first detection.
		zones, err := archive.LoadZones(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		for _, z := range zones {
			if _, _, err := st.AddZone(context.Background(), z); err != nil {
				log.Fatal(err)
			}
		}
		log.Printf("zones loaded from archive count=%d", len(zones))
	} else {
		log.Println("DATABASE_URL not set, running without the postgres archive")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if strings.TrimSpace(redisAddr) != "" {
		notifier := notify.NewRedisNotifier(redisAddr)
		if err := notifier.Ping(context.Background()); err != nil {
			log.Fatal(err)
		}
		defer notifier.Close()
		sinks = append(sinks, notifier)
		notifiers = append(notifiers, notifier)
	} else {
		log.Println("REDIS_ADDR not set, running without the redis notifier")
	}

	coord := dispatch.New(st, sinks, notifiers)
	router := api.NewRouter(st, coord)

	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
