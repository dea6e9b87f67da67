package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	RatingCurveLinear = "linear"
	RatingCurveTiered = "tiered"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Dsn         string `env:"DSN" envDefault:"postgres://localhost:5432/huddles?sslmode=disable"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	JwtSecret   string `env:"JWT_SECRET"`
	JwtExpires  string `env:"JWT_EXPIRES" envDefault:"24h"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	KarmaBaseline    int    `env:"KARMA_BASELINE" envDefault:"100"`
	KarmaHostBonus   int    `env:"KARMA_HOST_BONUS" envDefault:"5"`
	KarmaDailyLogin  int    `env:"KARMA_DAILY_LOGIN" envDefault:"1"`
	KarmaRatingCurve string `env:"KARMA_RATING_CURVE" envDefault:"linear"`

	NearbyDefaultRadiusKm float64       `env:"NEARBY_DEFAULT_RADIUS_KM" envDefault:"10"`
	NearbyMaxRadiusKm     float64       `env:"NEARBY_MAX_RADIUS_KM" envDefault:"100"`
	HuddleExpiryGrace     time.Duration `env:"HUDDLE_EXPIRY_GRACE" envDefault:"24h"`

	// Empty leaves the overdue sweep off; huddles close only when their
	// creator completes or cancels them.
	HuddleSweepSpec string `env:"HUDDLE_SWEEP_SPEC"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.WithError(loadErr).Info("[Env]: unable to load .env file")
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.WithError(parseErr).Error("[Env]: failed to parse environment variables")
	}

	return &cfg
}

// Validate reports the first setting that would leave the service unusable.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.KarmaRatingCurve {
	case RatingCurveLinear, RatingCurveTiered:
	default:
		return fmt.Errorf("unknown KARMA_RATING_CURVE %q", c.KarmaRatingCurve)
	}

	if c.NearbyDefaultRadiusKm <= 0 || c.NearbyMaxRadiusKm <= 0 {
		return fmt.Errorf("nearby radius settings must be positive")
	}
	if c.NearbyDefaultRadiusKm > c.NearbyMaxRadiusKm {
		return fmt.Errorf("NEARBY_DEFAULT_RADIUS_KM exceeds NEARBY_MAX_RADIUS_KM")
	}

	if c.JwtSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := time.ParseDuration(c.JwtExpires); err != nil {
		return fmt.Errorf("invalid JWT_EXPIRES: %w", err)
	}

	return nil
}
