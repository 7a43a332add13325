package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const defaultPath = "."

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	// SecretKey signs admin access tokens.
	SecretKey struct {
		Admin string `json:"admin" yaml:"admin"`
	} `json:"secretKey" yaml:"secretKey"`

	// Firebase configuration for the FCM dispatcher.
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Scheduler configuration for the per-timezone push coordinators.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Dedupe configuration for the claim store.
	Dedupe DedupeConfig `json:"dedupe" yaml:"dedupe"`

	// PubSub configuration for run-summary event publishing.
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// RedisConfig defines the connection for the dedup and read-receipt stores.
type RedisConfig struct {
	URL string `json:"url" yaml:"url"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// SchedulerConfig drives the timezone coordinators. Fire times are local
// times of day in "HH:MM" form and may change between ticks; coordinators
// detect the drift and re-register their wake-ups.
type SchedulerConfig struct {
	// PushEnabled is the global kill switch. Wake-ups still fire and
	// reschedule while disabled; pipelines are skipped.
	PushEnabled bool `json:"pushEnabled" yaml:"pushEnabled"`

	MorningTime string `json:"morningTime" yaml:"morningTime"`
	RetryTime   string `json:"retryTime" yaml:"retryTime"`

	// VersionToken marks the current scheduler generation. Coordinators
	// holding a stale token self-unregister on their next wake-up.
	VersionToken string `json:"versionToken" yaml:"versionToken"`

	// Timezones seeded at startup. Further zones can be initialized
	// through the admin surface.
	Timezones []string `json:"timezones" yaml:"timezones"`

	DailyContentCount   int `json:"dailyContentCount" yaml:"dailyContentCount"`
	ContentHistoryDays  int `json:"contentHistoryDays" yaml:"contentHistoryDays"`
	UserBatchSize       int `json:"userBatchSize" yaml:"userBatchSize"`
	DispatchConcurrency int `json:"dispatchConcurrency" yaml:"dispatchConcurrency"`
}

// DedupeConfig defines claim-store behavior.
type DedupeConfig struct {
	// ClaimTTL bounds how long a claim blocks re-sends. Defaults to 24h.
	ClaimTTL time.Duration `json:"claimTtl" yaml:"claimTtl"`

	// FailMode is "open" (store errors permit the send) or "closed"
	// (store errors block it). The source system ships fail-open:
	// a duplicate push beats a silently dropped one.
	FailMode string `json:"failMode" yaml:"failMode"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

const (
	defaultDailyContentCount   = 2
	defaultContentHistoryDays  = 7
	defaultUserBatchSize       = 1000
	defaultDispatchConcurrency = 50
	defaultClaimTTL            = 24 * time.Hour
	defaultMorningTime         = "08:00"
	defaultRetryTime           = "15:00"

	// FailModeOpen permits the send when the claim store is unreachable.
	FailModeOpen = "open"
	// FailModeClosed treats store errors as "already claimed".
	FailModeClosed = "closed"
)

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: SCHEDULER_MORNINGTIME -> scheduler.morningTime
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if cfg.Dedupe.FailMode != FailModeOpen && cfg.Dedupe.FailMode != FailModeClosed {
		return nil, errors.Errorf("unknown dedupe fail mode: %s", cfg.Dedupe.FailMode)
	}

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	sched := &cfg.Scheduler
	if sched.MorningTime == "" {
		sched.MorningTime = defaultMorningTime
	}
	if sched.RetryTime == "" {
		sched.RetryTime = defaultRetryTime
	}
	if sched.DailyContentCount <= 0 {
		sched.DailyContentCount = defaultDailyContentCount
	}
	if sched.ContentHistoryDays <= 0 {
		sched.ContentHistoryDays = defaultContentHistoryDays
	}
	if sched.UserBatchSize <= 0 {
		sched.UserBatchSize = defaultUserBatchSize
	}
	if sched.DispatchConcurrency <= 0 {
		sched.DispatchConcurrency = defaultDispatchConcurrency
	}
	if cfg.Dedupe.ClaimTTL <= 0 {
		cfg.Dedupe.ClaimTTL = defaultClaimTTL
	}
	if cfg.Dedupe.FailMode == "" {
		cfg.Dedupe.FailMode = FailModeOpen
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
