package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port         string `env:"PORT,          default=8080"`
	Env          string `env:"ENV,           default=development"`
	JWTSecret    string `env:"JWT_SECRET"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tracker_sync"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// TrackingConfig holds the live tracking tunables.
type TrackingConfig struct {
	Topic             string        `env:"TRACKING_TOPIC,     default=tracking:live"`
	HistoryMax        int           `env:"HISTORY_MAX,        default=50"`
	OfflineAfter      time.Duration `env:"OFFLINE_AFTER,      default=60s"`
	LogCooldown       time.Duration `env:"LOG_COOLDOWN,       default=10s"`
	BroadcastCooldown time.Duration `env:"BROADCAST_COOLDOWN, default=2s"`
	MinDisplacement   float64       `env:"MIN_DISPLACEMENT,   default=0.0001"`
	MaxAccuracy       float64       `env:"MAX_ACCURACY,       default=50"`
	BufferCap         int           `env:"BUFFER_CAP,         default=500"`
	BufferKey         string        `env:"BUFFER_KEY,         default=tracker:offline-logs"`
	SubscribeTimeout  time.Duration `env:"SUBSCRIBE_TIMEOUT,  default=10s"`
	PresenceTTL       time.Duration `env:"PRESENCE_TTL,       default=30s"`
	UpdateInterval    time.Duration `env:"UPDATE_INTERVAL,    default=2s"`
	FrameRate         int           `env:"FRAME_RATE,         default=30"`
	SimTick           time.Duration `env:"SIM_TICK,           default=2s"`
	SimRouteFile      string        `env:"SIM_ROUTE_FILE"`
	InboundWorkers    int           `env:"INBOUND_WORKERS,    default=4"`
	ProbeInterval     time.Duration `env:"PROBE_INTERVAL,     default=5s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Tracking.FrameRate <= 0 {
		return nil, fmt.Errorf("FRAME_RATE must be positive, got %d", cfg.Tracking.FrameRate)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
