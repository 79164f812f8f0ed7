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
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/campus-sdk/pkg/logging"
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

// LoadEnv loads the given env files from the working directory, or from the
// nearest parent directory holding go.mod when none exist in the working directory.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := existing(envFiles, "")
	if len(existingFiles) == 0 {
		if root := moduleRoot(); root != "" {
			existingFiles = existing(envFiles, root)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

func existing(envFiles []string, dir string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		if filepath.Dir(dir) == dir {
			return ""
		}
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"campus"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type LokiOptions struct {
	LogPath string `env:"LOG_PATH" envDefault:"./logs/app.log"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	PerMinute int64  `env:"RATE_LIMIT_UPLOADS_PER_MINUTE" envDefault:"30"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
}

// DTROptions configures the time-record import pipeline.
type DTROptions struct {
	OverridesPath string `env:"DTR_OVERRIDES_PATH" envDefault:"config/dtr/overrides.yaml"`
	PadFirstDay   bool   `env:"DTR_PAD_FIRST_DAY" envDefault:"true"`

	TemplateFirstRow int    `env:"DTR_TEMPLATE_FIRST_ROW" envDefault:"11"`
	TemplateLastRow  int    `env:"DTR_TEMPLATE_LAST_ROW" envDefault:"41"`
	TemplateNameCell string `env:"DTR_TEMPLATE_NAME_CELL" envDefault:"B4"`
	TemplateIDCell   string `env:"DTR_TEMPLATE_ID_CELL" envDefault:"F4"`

	SubmitBackend string        `env:"DTR_SUBMIT_BACKEND" envDefault:"db"` // db or http
	SubmitURL     string        `env:"DTR_SUBMIT_URL"`
	SubmitToken   string        `env:"DTR_SUBMIT_TOKEN"`
	SubmitTimeout time.Duration `env:"DTR_SUBMIT_TIMEOUT" envDefault:"30s"`

	RunStore    string        `env:"DTR_RUN_STORE" envDefault:"memory"` // memory or redis
	RunTTL      time.Duration `env:"DTR_RUN_TTL" envDefault:"24h"`
	OutboxTable string        `env:"DTR_OUTBOX_TABLE" envDefault:"public.dtr_outbox"`

	// Outbox relay forwarding submitted batches downstream; disabled when RelayURL is empty.
	RelayURL          string        `env:"DTR_RELAY_URL"`
	RelayPollInterval time.Duration `env:"DTR_RELAY_POLL_INTERVAL" envDefault:"2s"`
	RelayMaxAttempts  int           `env:"DTR_RELAY_MAX_ATTEMPTS" envDefault:"10"`
}

// Validate checks the DTR configuration for errors
func (d *DTROptions) Validate() error {
	if d.TemplateFirstRow < 1 {
		return fmt.Errorf("DTR_TEMPLATE_FIRST_ROW must be positive, got %d", d.TemplateFirstRow)
	}
	if d.TemplateLastRow < d.TemplateFirstRow {
		return fmt.Errorf("DTR_TEMPLATE_LAST_ROW (%d) must not precede DTR_TEMPLATE_FIRST_ROW (%d)", d.TemplateLastRow, d.TemplateFirstRow)
	}
	d.SubmitBackend = strings.ToLower(strings.TrimSpace(d.SubmitBackend))
	switch d.SubmitBackend {
	case "db":
	case "http":
		if strings.TrimSpace(d.SubmitURL) == "" {
			return fmt.Errorf("DTR_SUBMIT_URL is required when DTR_SUBMIT_BACKEND is 'http'")
		}
	default:
		return fmt.Errorf("DTR_SUBMIT_BACKEND must be 'db' or 'http', got '%s'", d.SubmitBackend)
	}
	d.RunStore = strings.ToLower(strings.TrimSpace(d.RunStore))
	if d.RunStore != "memory" && d.RunStore != "redis" {
		return fmt.Errorf("DTR_RUN_STORE must be 'memory' or 'redis', got '%s'", d.RunStore)
	}
	if d.RunTTL <= 0 {
		return fmt.Errorf("DTR_RUN_TTL must be positive, got %s", d.RunTTL)
	}
	if d.RelayURL != "" && d.RelayMaxAttempts < 1 {
		return fmt.Errorf("DTR_RELAY_MAX_ATTEMPTS must be positive, got %d", d.RelayMaxAttempts)
	}
	return nil
}

type Configuration struct {
	Database   DatabaseOptions
	Loki       LokiOptions
	Prometheus PrometheusOptions
	RateLimit  RateLimitOptions
	DTR        DTROptions

	RedisURL         string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	// Browser origins allowed to call /dtr/api.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	MaxUploadSize    int64  `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	// Looked up on incoming requests; a random uuidv4 is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

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

func Use() *Configuration {
	return singleton()
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
	if err := c.parse(); err != nil {
		return err
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Loki.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

// parse reads the environment into c and derives computed fields.
func (c *Configuration) parse() error {
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.DTR.Validate(); err != nil {
		return fmt.Errorf("dtr configuration error: %w", err)
	}

	c.Database.Opts = c.Database.ConnectionString()
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
