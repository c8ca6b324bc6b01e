package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Scheme string `koanf:"scheme" default:"http"`
	Port   int    `koanf:"port" default:"8084"`
	Host   string `koanf:"host" default:"localhost"`

	ReadTimeout     time.Duration `koanf:"read_timeout" default:"5s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" default:"30s"`

	AllowOrigins []string `koanf:"alloworigins" default:"[]"`
	HealthCheck  bool     `koanf:"health_check" default:"true"`
}

func (s *ServerConfig) GetServerURL() string {
	return s.Scheme + "://" + s.Host + ":" + strconv.Itoa(s.Port)
}

type APPConfig struct {
	Environtment string        `koanf:"environtment" default:"development"`
	LogLevel     zerolog.Level `koanf:"log_level" default:"debug"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" default:"adaudit.db"`
}

// SyncServiceConfig points at the external service that performs the actual
// ad-platform fetching and streams progress back over SSE.
type SyncServiceConfig struct {
	BaseURL        string        `koanf:"base_url" default:"http://localhost:9080"`
	TokenTimeout   time.Duration `koanf:"token_timeout" default:"5s"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" default:"10s"`

	// GraceWindow is how long a session waits after a transport drop for a
	// late terminal event before declaring the connection lost. Timing
	// heuristic, not a guarantee.
	GraceWindow time.Duration `koanf:"grace_window" default:"500ms"`
}

type AuditConfig struct {
	Enabled    bool   `koanf:"enabled" default:"true"`
	BaseURL    string `koanf:"base_url" default:"http://localhost:9090"`
	MaxWorkers int    `koanf:"max_workers" default:"4"`

	RequestTimeout time.Duration `koanf:"request_timeout" default:"30s"`
}

type SchedulerConfig struct {
	CronSchedule string `koanf:"cron_schedule" default:"0 0 6 * * *"`
	Enabled      bool   `koanf:"enabled" default:"false"`
	RunAtStartup bool   `koanf:"run_at_startup" default:"false"`
}

type CacheSettings struct {
	BadgerPath string        `koanf:"badger_path" default:""`
	InMemory   bool          `koanf:"in_memory" default:"true"`
	UseBloom   bool          `koanf:"use_bloom" default:"true"`
	ReportTTL  time.Duration `koanf:"report_ttl" default:"720h"`
}

type Config struct {
	APP         APPConfig
	Server      ServerConfig
	Database    DatabaseConfig
	SyncService SyncServiceConfig
	Audit       AuditConfig
	Scheduler   SchedulerConfig
	Cache       CacheSettings
}
