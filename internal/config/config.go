package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	KVBackendRedis  = "redis"
	KVBackendSQLite = "sqlite"
	KVBackendMemory = "memory"

	NotifyBackendLog    = "log"
	NotifyBackendTwilio = "twilio"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Shared secret protecting pocket_login and pocket_auth_callback
	Secret string

	// Pocket app
	PocketConsumerKey string
	PocketCallbackURL string // public URL of pocket_auth_callback
	PocketLoginURL    string // public URL of pocket_login, sent in login prompts
	PocketBaseURL     string // ex: https://getpocket.com

	// OneDrive app
	OneDriveClientID     string
	OneDriveClientSecret string
	OneDriveCallbackURL  string // public URL of onedrive_auth_callback
	OneDriveFilePath     string // ex: /Notes/Pocket.md
	MSAuthorityURL       string // ex: https://login.microsoftonline.com/common/oauth2/v2.0
	GraphBaseURL         string // ex: https://graph.microsoft.com/v1.0

	HTTPTimeout time.Duration // outbound HTTP client timeout

	// Jobs
	SyncInterval    time.Duration // interval between sync cycles in serve mode
	RefreshInterval time.Duration // interval between OneDrive token refreshes
	PurgeInterval   time.Duration // interval between expired key purges (sqlite only)
	Lookback        time.Duration // how far back each sync asks Pocket for items

	// Notifications
	NotifyBackend    string // "log" | "twilio"
	NotifyPhone      string // recipient of login prompts
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	// Key-value store
	KVBackend  string // "redis" | "sqlite" | "memory"
	KVPrefix   string // optional namespace for every key
	SQLitePath string

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions for operational endpoints
	AllowedHosts []string // optional, restrict /status and /sync to specific Host headers
	AllowedCIDRS []string // optional, restrict operational endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Rate limit on the OAuth endpoints
	AuthRateBurst  int
	AuthRatePerMin int
}

// Load reads the configuration from the environment. When P2D_CONFIG_FILE
// names a YAML file, its keys (same names as the variables) fill in anything
// the environment leaves unset. Missing required values panic.
func Load() *Config {
	src := newSource(os.Getenv("P2D_CONFIG_FILE"))

	cfg := &Config{
		// Server settings
		ListenPort:      src.getenv("P2D_LISTEN_PORT", ":8080"),
		ShutdownTimeout: src.mustDuration("P2D_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  src.getenv("P2D_LOG_LEVEL", "info"),
		PrettyLog: src.mustBool("P2D_PRETTY_LOG", false),

		Secret: src.requireEnv("P2D_SECRET"),

		// Pocket
		PocketConsumerKey: src.requireEnv("P2D_POCKET_CONSUMER_KEY"),
		PocketCallbackURL: src.requireEnv("P2D_POCKET_CALLBACK_URL"),
		PocketLoginURL:    src.requireEnv("P2D_POCKET_LOGIN_URL"),
		PocketBaseURL:     src.getenv("P2D_POCKET_BASE_URL", "https://getpocket.com"),

		// OneDrive
		OneDriveClientID:     src.requireEnv("P2D_ONEDRIVE_CLIENT_ID"),
		OneDriveClientSecret: src.requireEnv("P2D_ONEDRIVE_CLIENT_SECRET"),
		OneDriveCallbackURL:  src.requireEnv("P2D_ONEDRIVE_CALLBACK_URL"),
		OneDriveFilePath:     src.requireEnv("P2D_ONEDRIVE_FILE_PATH"),
		MSAuthorityURL:       src.getenv("P2D_MS_AUTHORITY_URL", "https://login.microsoftonline.com/common/oauth2/v2.0"),
		GraphBaseURL:         src.getenv("P2D_GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),

		HTTPTimeout: src.mustDuration("P2D_HTTP_TIMEOUT", 30*time.Second),

		// Jobs
		SyncInterval:    src.mustDuration("P2D_SYNC_INTERVAL", time.Hour),
		RefreshInterval: src.mustDuration("P2D_REFRESH_INTERVAL", time.Hour),
		PurgeInterval:   src.mustDuration("P2D_PURGE_INTERVAL", 6*time.Hour),
		Lookback:        src.mustDuration("P2D_LOOKBACK", 24*time.Hour),

		// Notifications
		NotifyBackend:    src.getenv("P2D_NOTIFY_BACKEND", NotifyBackendLog),
		NotifyPhone:      src.getenv("P2D_NOTIFY_PHONE", ""),
		TwilioAccountSID: src.getenv("P2D_TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  src.getenv("P2D_TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       src.getenv("P2D_TWILIO_FROM", ""),

		// Key-value store
		KVBackend:  src.getenv("P2D_KV_BACKEND", KVBackendRedis),
		KVPrefix:   src.getenv("P2D_KV_PREFIX", ""),
		SQLitePath: src.getenv("P2D_SQLITE_PATH", "/data/pocket2drive.db"),

		// Redis settings
		RedisAddr:             src.getenv("P2D_REDIS_ADDR", "localhost:6379"),
		RedisUser:             src.getenv("P2D_REDIS_USERNAME", ""),
		RedisPasswordRequired: src.mustBool("P2D_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         src.getenv("P2D_REDIS_PASSWORD", ""),
		RedisDB:               src.getenvInt("P2D_REDIS_DB", 0),
		RedisDT:               src.mustDuration("P2D_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               src.mustDuration("P2D_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               src.mustDuration("P2D_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          src.mustDuration("P2D_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      src.mustDuration("P2D_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         src.getenvInt("P2D_REDIS_POOL_SIZE", 4),
		RedisConnectTimeout:   src.mustDuration("P2D_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    src.mustDuration("P2D_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    src.getenvInt("P2D_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(src.getenv("P2D_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(src.getenv("P2D_ALLOWED_CIDRS", "")),
		TrustProxy:   src.mustBool("P2D_TRUST_PROXY", false),

		AuthRateBurst:  src.getenvInt("P2D_AUTH_RATE_BURST", 5),
		AuthRatePerMin: src.getenvInt("P2D_AUTH_RATE_PER_MIN", 10),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.KVBackend {
	case KVBackendRedis:
		if c.RedisPasswordRequired && c.RedisPassword == "" {
			return fmt.Errorf("P2D_REDIS_PASSWORD is required when P2D_REDIS_PASSWORD_REQUIRED=true")
		}
	case KVBackendSQLite, KVBackendMemory:
	default:
		return fmt.Errorf("unknown P2D_KV_BACKEND %q", c.KVBackend)
	}

	switch c.NotifyBackend {
	case NotifyBackendLog:
	case NotifyBackendTwilio:
		if c.NotifyPhone == "" || c.TwilioFrom == "" || c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
			return fmt.Errorf("twilio notifications need P2D_NOTIFY_PHONE, P2D_TWILIO_FROM, P2D_TWILIO_ACCOUNT_SID and P2D_TWILIO_AUTH_TOKEN")
		}
	default:
		return fmt.Errorf("unknown P2D_NOTIFY_BACKEND %q", c.NotifyBackend)
	}

	if !strings.HasPrefix(c.OneDriveFilePath, "/") {
		return fmt.Errorf("P2D_ONEDRIVE_FILE_PATH must start with '/', got %q", c.OneDriveFilePath)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	const mask = "***REDACTED***"
	cp := *c
	for _, f := range []*string{
		&cp.Secret, &cp.PocketConsumerKey, &cp.OneDriveClientSecret,
		&cp.TwilioAuthToken, &cp.RedisPassword, &cp.RedisUser,
	} {
		if *f != "" {
			*f = mask
		}
	}
	return cp
}

// source resolves a key from the environment first, then from the optional
// YAML file.
type source struct {
	file map[string]string
}

func newSource(path string) source {
	if path == "" {
		return source{}
	}
	values, err := readFile(path)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: cannot read config file %s: %v", path, err))
	}
	return source{file: values}
}

// readFile parses a flat YAML mapping. Scalars are kept as written and
// sequences are joined with commas.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[k] = strings.Join(parts, ",")
		case map[string]interface{}:
			return nil, fmt.Errorf("key %s: nested mappings are not supported", k)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

// helpers
func (s source) getenv(key, def string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return def
}

func (s source) requireEnv(key string) string {
	v := s.lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func (s source) getenvInt(key string, def int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) mustBool(key string, def bool) bool {
	if v := s.lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func (s source) mustDuration(key string, def time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
