package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicflow/flow-service/internal/config"
	"clinicflow/flow-service/internal/directory"
	dirmemory "clinicflow/flow-service/internal/directory/memory"
	dirpostgres "clinicflow/flow-service/internal/directory/postgres"
	"clinicflow/flow-service/internal/httpapi"
	"clinicflow/flow-service/internal/hub"
	"clinicflow/flow-service/internal/models"
	"clinicflow/flow-service/internal/notify"
	"clinicflow/flow-service/internal/pathway"
	"clinicflow/flow-service/internal/station"
	"clinicflow/flow-service/internal/store/memory"
	"clinicflow/flow-service/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("flow-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	patientDirectory, closeDirectory := buildDirectory(cfg)
	defer closeDirectory()

	registry := station.RegistryFromConfig(cfg.StationRooms, cfg.StationServiceMinutes)
	catalog := pathway.NewTableCatalog()
	flowStore := memory.NewStore(registry, catalog, memory.Options{Directory: patientDirectory})
	boardHub := hub.New()

	handler := httpapi.NewHandler(flowStore, httpapi.Options{
		Catalog:   catalog,
		Directory: patientDirectory,
		Hub:       boardHub,
		Notifier:  notify.LogNotifier{},
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:    cfg.RateLimitPerMinute,
		IPBurst:        cfg.RateLimitBurst,
		TokenPerMinute: cfg.TokenRateLimitPerMinute,
		TokenBurst:     cfg.TokenRateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/realtime/", boardRealtimeHandler(boardHub))
	mux.Handle("/", limiter.Middleware(httpapi.LoggingMiddleware(handler.Routes())))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, "flow-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("flow-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stopRefresh := make(chan struct{})
	go refreshBoards(flowStore, registry, boardHub, cfg.BoardRefreshInterval, stopRefresh)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	close(stopRefresh)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildDirectory(cfg config.Config) (directory.Directory, func()) {
	if cfg.DatabaseURL == "" {
		log.Printf("no DB_DSN configured, using in-memory patient directory")
		return dirmemory.New([]models.Patient{
			{PatientID: "AEH1001", Name: "Ramanathan S", Age: 65, Gender: "Male", Phone: "9876543210"},
		}), func() {}
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return dirpostgres.New(pool), pool.Close
}

// refreshBoards re-broadcasts every station board on a fixed cadence so
// aging-driven reorderings reach displays even between queue mutations.
func refreshBoards(flowStore *memory.Store, registry *station.Registry, boardHub *hub.Hub, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		now := time.Now().UTC()
		for _, stationID := range registry.Stations() {
			view, err := flowStore.StationView(context.Background(), stationID, now)
			if err != nil {
				continue
			}
			payload, err := json.Marshal(view)
			if err != nil {
				continue
			}
			boardHub.Broadcast(stationID, payload)
		}
	}
}

func boardRealtimeHandler(boardHub *hub.Hub) http.Handler {
	return sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		boardHub.Register(client)
		defer boardHub.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				boardHub.UpdateSubscription(client, hub.Subscription{})
				continue
			}
			boardHub.UpdateSubscription(client, hub.Subscription{StationID: parsed.StationID})
		}
	})
}
