package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/openclerk/directory/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

// UpstreamOptions identifies the external record store. APIKey and BaseID
// have no defaults on purpose: starting without them is a configuration
// error, not a degraded mode.
type UpstreamOptions struct {
	APIKey  string        `env:"UPSTREAM_API_KEY"`
	BaseID  string        `env:"UPSTREAM_BASE_ID"`
	BaseURL string        `env:"UPSTREAM_BASE_URL" envDefault:"https://api.airtable.com/v0"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
}

func (u *UpstreamOptions) Validate() error {
	if strings.TrimSpace(u.APIKey) == "" {
		return fmt.Errorf("UPSTREAM_API_KEY is required")
	}
	if strings.TrimSpace(u.BaseID) == "" {
		return fmt.Errorf("UPSTREAM_BASE_ID is required")
	}
	if strings.TrimSpace(u.BaseURL) == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must not be empty")
	}
	return nil
}

type CacheOptions struct {
	Backend  string        `env:"CACHE_BACKEND" envDefault:"memory"` // memory or redis
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"12h"`
	RedisURL string        `env:"REDIS_URL" envDefault:"localhost:6379"`
}

func (c *CacheOptions) Validate() error {
	if c.Backend != "memory" && c.Backend != "redis" {
		return fmt.Errorf("cache Backend must be 'memory' or 'redis', got '%s'", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.TTL)
	}
	return nil
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type ContactOptions struct {
	RateMax    int64         `env:"CONTACT_RATE_MAX" envDefault:"5"`
	RateWindow time.Duration `env:"CONTACT_RATE_WINDOW" envDefault:"1m"`
}

// TableOptions holds the upstream table names. They are configuration
// because the remote base owns its own naming.
type TableOptions struct {
	Departments  string `env:"TABLE_DEPARTMENTS" envDefault:"Departments"`
	Staff        string `env:"TABLE_STAFF" envDefault:"Staff"`
	Boards       string `env:"TABLE_BOARDS" envDefault:"Boards"`
	BoardMembers string `env:"TABLE_BOARD_MEMBERS" envDefault:"Board Members"`
}

type Configuration struct {
	Upstream  UpstreamOptions
	Cache     CacheOptions
	RateLimit RateLimitOptions
	Contact   ContactOptions
	Tables    TableOptions

	PageDelay             time.Duration `env:"PAGE_DELAY" envDefault:"200ms"`
	ExcludedCategoryRoots string        `env:"EXCLUDED_CATEGORY_ROOTS" envDefault:"Townships"`

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Looked up in the request first; falls back to request.RemoteAddr.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

// CategoryRoots returns the department names whose subtrees are withheld
// from slug routing.
func (c *Configuration) CategoryRoots() []string {
	parts := strings.Split(c.ExcludedCategoryRoots, ",")
	roots := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			roots = append(roots, trimmed)
		}
	}
	return roots
}

func Use() *Configuration {
	return singleton()
}

// Load parses configuration from the environment without touching the
// process-wide singleton. CLI tools and tests use this directly.
func Load() (*Configuration, error) {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream configuration error: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache configuration error: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
