package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/jjsast/internal/api"
	"github.com/QTest-hq/jjsast/internal/config"
	"github.com/QTest-hq/jjsast/internal/db"
	"github.com/QTest-hq/jjsast/internal/nats"
	"github.com/QTest-hq/jjsast/internal/persist"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := newSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot source")
	}
	defer src.Close()

	opts := []api.Option{}
	if src.store != nil {
		opts = append(opts, api.WithCheck("database", src.store.Ping))
	}

	var events *nats.Client
	if cfg.NATSURL != "" {
		events, err = nats.NewClient(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer events.Close()
		opts = append(opts, api.WithCheck("nats", func(context.Context) error {
			return events.HealthCheck()
		}))
	}

	srv, err := api.NewServer(cfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	snap, err := src.initial(ctx)
	switch {
	case err != nil:
		log.Fatal().Err(err).Msg("failed to read snapshot")
	case snap == nil:
		log.Warn().Str("name", cfg.SnapshotName).Msg("no snapshot stored yet, waiting for one")
	default:
		if err := srv.Load(snap); err != nil {
			log.Fatal().Err(err).Msg("failed to load snapshot")
		}
	}

	if events != nil {
		if err := events.SetupStreams(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to set up snapshot stream")
		}
		stopWatch, err := events.WatchSnapshots(ctx, func(e nats.SnapshotEvent) {
			src.reload(ctx, srv, e)
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to watch snapshot events")
		}
		defer stopWatch()
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		log.Info().Msg("server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("could not gracefully shutdown the server")
		}
		close(done)
	}()

	log.Info().Int("port", cfg.Port).Msg("starting API server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("could not listen on port")
	}

	<-done
	log.Info().Msg("server stopped")
}

// source is where snapshots come from: a file, or the database
type source struct {
	path  string
	name  string
	conn  *db.DB
	store *db.Store
}

func newSource(ctx context.Context, cfg *config.Config) (*source, error) {
	src := &source{path: cfg.SnapshotPath, name: cfg.SnapshotName}
	if src.path != "" {
		return src, nil
	}

	conn, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	src.conn = conn
	src.store = db.NewStore(conn)
	if err := src.store.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return src, nil
}

func (s *source) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// initial returns the snapshot to serve at startup, nil when none is stored
func (s *source) initial(ctx context.Context) (*persist.Snapshot, error) {
	if s.path != "" {
		return persist.ReadFile(s.path, persist.FormatFor(s.path))
	}
	return s.store.LatestSnapshot(ctx, s.name)
}

// reload swaps in the snapshot announced by e when it concerns the served name
func (s *source) reload(ctx context.Context, srv *api.Server, e nats.SnapshotEvent) {
	logger := log.With().Str("snapshot_id", e.SnapshotID).Str("kind", string(e.Kind)).Logger()
	if e.Kind != nats.EventSaved || (s.name != "" && e.Name != s.name) {
		logger.Debug().Msg("ignoring snapshot event")
		return
	}

	var (
		snap *persist.Snapshot
		err  error
	)
	if s.store == nil {
		snap, err = s.initial(ctx)
	} else {
		id, perr := uuid.Parse(e.SnapshotID)
		if perr != nil {
			logger.Warn().Err(perr).Msg("malformed snapshot id")
			return
		}
		snap, err = s.store.GetSnapshot(ctx, id)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch snapshot")
		return
	}
	if snap == nil {
		logger.Warn().Msg("announced snapshot not found")
		return
	}

	if err := srv.Load(snap); err != nil {
		logger.Error().Err(err).Msg("failed to load snapshot")
		return
	}
	logger.Info().Msg("snapshot reloaded")
}
