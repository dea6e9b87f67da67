package deps

import (
	"context"

	"github.com/bwise1/huddle_karma/config"
	"github.com/bwise1/huddle_karma/internal/db"
	"github.com/bwise1/huddle_karma/internal/huddle"
	"github.com/bwise1/huddle_karma/internal/jobs"
	"github.com/bwise1/huddle_karma/internal/karma"
	"github.com/bwise1/huddle_karma/internal/store/memory"
	"github.com/bwise1/huddle_karma/internal/store/postgres"
	"github.com/bwise1/huddle_karma/internal/vibecheck"
	"github.com/bwise1/huddle_karma/util/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Dependencies struct {
	// DB is nil with the memory store driver.
	DB *db.DB
	// Memory is set only with the memory store driver.
	Memory *memory.Store

	Cloudinary *storage.Cloudinary
	Huddles    *huddle.Service
	Ledger     *karma.Ledger
	VibeChecks *vibecheck.Gate
	Scheduler  *jobs.Scheduler
}

// stores is everything the engines need from one backend.
type stores interface {
	huddle.Store
	huddle.ProfileSource
	karma.Store
	vibecheck.Store
}

func New(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	curve, err := karma.CurveByName(cfg.KarmaRatingCurve)
	if err != nil {
		return nil, err
	}

	d := &Dependencies{Cloudinary: storage.NewCloudinary(cfg)}

	var backend stores
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		d.Memory = memory.New()
		backend = d.Memory
		log.Warn("[Deps]: using the in-memory store, data is lost on restart")
	default:
		database, err := db.New(cfg.Dsn)
		if err != nil {
			return nil, errors.Wrap(err, "connect to database")
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, errors.Wrap(err, "migrate database")
		}
		d.DB = database
		backend = postgres.New(database)
	}

	d.Ledger = karma.NewLedger(backend, karma.Options{
		Baseline:        cfg.KarmaBaseline,
		HostBonus:       cfg.KarmaHostBonus,
		DailyLoginBonus: cfg.KarmaDailyLogin,
		Curve:           curve,
	})
	d.Huddles = huddle.NewService(backend, backend, d.Ledger, huddle.Options{
		DefaultRadiusKm: cfg.NearbyDefaultRadiusKm,
		MaxRadiusKm:     cfg.NearbyMaxRadiusKm,
		ExpiryGrace:     cfg.HuddleExpiryGrace,
	})
	d.VibeChecks = vibecheck.NewGate(backend, backend, d.Ledger, nil)
	d.Scheduler = jobs.NewScheduler(cfg.HuddleSweepSpec, d.Huddles)

	return d, nil
}

// Ping reports whether the backing store is reachable.
func (d *Dependencies) Ping(ctx context.Context) error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Pool().Ping(ctx)
}

func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
