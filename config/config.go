package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                       string `envconfig:"PORT" default:"8080"`
		LogLevel                   string `envconfig:"LOG_LEVEL" default:"info"`
		RateLimitPerSecond         int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit        int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`
		APIKey                     string `envconfig:"API_KEY" default:""`
		APIKeyRequired             bool   `envconfig:"API_KEY_REQUIRED" default:"false"`
		AdminToken                 string `envconfig:"ADMIN_TOKEN" default:""` // Authorization header for /stats, /store and /circuit-breaker
		DBPath                     string `envconfig:"DB_PATH" default:"./data/songstory.db"`
		DBBackupPath               string `envconfig:"DB_BACKUP_PATH" default:"./data/backups"`
		StatsDBPath                string `envconfig:"STATS_DB_PATH" default:"./data/stats.db"`
		StatsSaveIntervalSecs      int    `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"60"`
		ProviderTimeoutSecs        int    `envconfig:"PROVIDER_TIMEOUT_SECS" default:"10"`
		ProcessTimeoutSecs         int    `envconfig:"PROCESS_TIMEOUT_SECS" default:"120"` // One process-song run, lookups plus story
		CircuitBreakerThreshold    int    `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`      // Consecutive failures before a provider is skipped
		CircuitBreakerCooldownSecs int    `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"` // Seconds to wait before retrying
		KeywordTopN                int    `envconfig:"KEYWORD_TOP_N" default:"5"`
		KeywordMinLength           int    `envconfig:"KEYWORD_MIN_LENGTH" default:"2"`
		CORSAllowedOrigins         string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"` // comma separated
	}

	Spark struct {
		AppID              string `envconfig:"SPARK_APP_ID" default:""`
		APIKey             string `envconfig:"SPARK_API_KEY" default:""`
		APISecret          string `envconfig:"SPARK_API_SECRET" default:""`
		URL                string `envconfig:"SPARK_URL" default:"wss://spark-api.xf-yun.com/v4.0/chat"`
		Domain             string `envconfig:"SPARK_DOMAIN" default:"generalv4.0"`
		UID                string `envconfig:"SPARK_UID" default:"12345"`
		TimeoutSecs        int    `envconfig:"SPARK_TIMEOUT_SECS" default:"60"`
		InsecureSkipVerify bool   `envconfig:"SPARK_INSECURE_SKIP_VERIFY" default:"true"`
	}

	Notifier struct {
		SMTPHost          string `envconfig:"NOTIFIER_SMTP_HOST" default:""`
		SMTPPort          string `envconfig:"NOTIFIER_SMTP_PORT" default:"587"`
		SMTPUsername      string `envconfig:"NOTIFIER_SMTP_USERNAME" default:""`
		SMTPPassword      string `envconfig:"NOTIFIER_SMTP_PASSWORD" default:""`
		FromEmail         string `envconfig:"NOTIFIER_FROM_EMAIL" default:""`
		ToEmail           string `envconfig:"NOTIFIER_TO_EMAIL" default:""`
		TelegramBotToken  string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		TelegramChatID    string `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:""`
		NtfyTopic         string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NtfyServer        string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
		AlertCooldownMins int    `envconfig:"NOTIFIER_ALERT_COOLDOWN_MINS" default:"15"` // Minimum gap between two alerts of one type
	}

	FeatureFlags struct {
		StoreCompression bool `envconfig:"FF_STORE_COMPRESSION" default:"true"`
		StoryGeneration  bool `envconfig:"FF_STORY_GENERATION" default:"true"`
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS, dropping blanks
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Configuration.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// SparkConfigured reports whether story generation has credentials
func (c Config) SparkConfigured() bool {
	return c.Spark.AppID != "" && c.Spark.APIKey != "" && c.Spark.APISecret != ""
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
