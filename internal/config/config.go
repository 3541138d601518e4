package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port               int      `json:"port"`
	Environment        string   `json:"environment"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Collection names
	LeadCollection        string `json:"mongo_lead_collection"`
	DownloadLogCollection string `json:"mongo_download_log_collection"`

	// Redis configuration
	RedisURI          string        `json:"redis_uri"`
	RedisPassword     string        `json:"redis_password"`
	RedisDB           int           `json:"redis_db"`
	RedisPoolSize     int           `json:"redis_pool_size"`
	RedisMinIdleConns int           `json:"redis_min_idle_conns"`
	RedisDialTimeout  time.Duration `json:"redis_dial_timeout"`
	RedisReadTimeout  time.Duration `json:"redis_read_timeout"`
	RedisWriteTimeout time.Duration `json:"redis_write_timeout"`

	// Tracing configuration
	TracingEnabled     bool    `json:"tracing_enabled"`
	TracingEndpoint    string  `json:"tracing_endpoint"`
	TracingSampleRatio float64 `json:"tracing_sample_ratio"`

	// Admin authentication
	JWTSecret string `json:"-"`
	AdminRole string `json:"admin_role"`

	// Webhook configuration
	WebhookVerifyToken string `json:"-"`
	MetaAppSecret      string `json:"-"`
	GoogleWebhookKey   string `json:"-"`
	WebhookConcurrency int    `json:"webhook_concurrency"`

	// Phone verification configuration
	VerificationStore         string        `json:"verification_store"`
	VerificationTTL           time.Duration `json:"verification_ttl"`
	VerificationCodeLength    int           `json:"verification_code_length"`
	VerificationMaxAttempts   int           `json:"verification_max_attempts"`
	VerificationSweepInterval time.Duration `json:"verification_sweep_interval"`
	VerificationChannels      []string      `json:"verification_channels"`
	VerificationMessage       string        `json:"verification_message"`
	VerificationIssueLimit    int           `json:"verification_issue_limit"`
	VerificationIssueWindow   time.Duration `json:"verification_issue_window"`
	VerificationGlobalLimit   int           `json:"verification_global_limit_per_minute"`
	DefaultPhoneRegion        string        `json:"default_phone_region"`

	// WhatsApp HSM configuration
	WhatsAppEnabled      bool   `json:"whatsapp_enabled"`
	WhatsAppBaseURL      string `json:"whatsapp_base_url"`
	WhatsAppUsername     string `json:"-"`
	WhatsAppPassword     string `json:"-"`
	WhatsAppHSMID        string `json:"whatsapp_hsm_id"`
	WhatsAppCostCenterID string `json:"whatsapp_cost_center_id"`
	WhatsAppCampaignName string `json:"whatsapp_campaign_name"`

	// SMS configuration
	SMSEnabled        bool   `json:"sms_enabled"`
	SMSProviderURL    string `json:"sms_provider_url"`
	SMSAPIKey         string `json:"-"`
	SMSSourceNumber   string `json:"sms_source_number"`
	SMSRetryCount     int    `json:"sms_retry_count"`
	SMSValidityPeriod int    `json:"sms_validity_period"`

	// Push notification configuration
	PushEnabled bool   `json:"push_enabled"`
	PushURL     string `json:"push_url"`
	PushToken   string `json:"-"`

	// Lead notification configuration
	SMTPHost         string   `json:"smtp_host"`
	SMTPPort         int      `json:"smtp_port"`
	SMTPUsername     string   `json:"-"`
	SMTPPassword     string   `json:"-"`
	SMTPFrom         string   `json:"smtp_from"`
	LeadNotifyEmails []string `json:"lead_notify_emails"`
	AMQPURL          string   `json:"-"`
	AMQPExchange     string   `json:"amqp_exchange"`
}

var (
	AppConfig *Config
)

// Supported verification store backends
const (
	VerificationStoreMemory = "memory"
	VerificationStoreRedis  = "redis"
)

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	verificationTTL, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_TTL", "5m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_TTL: %w", err)
	}
	if verificationTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TTL must be positive")
	}

	store := strings.ToLower(getEnvOrDefault("VERIFICATION_STORE", VerificationStoreMemory))
	if store != VerificationStoreMemory && store != VerificationStoreRedis {
		return fmt.Errorf("invalid VERIFICATION_STORE: %s", store)
	}

	environment := getEnvOrDefault("ENVIRONMENT", "development")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && environment == "production" {
		return fmt.Errorf("JWT_SECRET environment variable is required in production")
	}

	AppConfig = &Config{
		// Server configuration
		Port:               port,
		Environment:        environment,
		CORSAllowedOrigins: parseCommaSeparatedList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "leads"),

		// Collection names
		LeadCollection:        getEnvOrDefault("MONGODB_LEAD_COLLECTION", "leads"),
		DownloadLogCollection: getEnvOrDefault("MONGODB_DOWNLOAD_LOG_COLLECTION", "download_logs"),

		// Redis configuration
		RedisURI:          getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword:     getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		RedisPoolSize:     getEnvAsIntOrDefault("REDIS_POOL_SIZE", 10),
		RedisMinIdleConns: getEnvAsIntOrDefault("REDIS_MIN_IDLE_CONNS", 5),
		RedisDialTimeout:  getEnvAsDurationOrDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisReadTimeout:  getEnvAsDurationOrDefault("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWriteTimeout: getEnvAsDurationOrDefault("REDIS_WRITE_TIMEOUT", 3*time.Second),

		// Tracing configuration
		TracingEnabled:     getEnvAsBoolOrDefault("TRACING_ENABLED", false),
		TracingEndpoint:    getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
		TracingSampleRatio: getEnvAsFloatOrDefault("TRACING_SAMPLE_RATIO", 1),

		// Admin authentication
		JWTSecret: jwtSecret,
		AdminRole: getEnvOrDefault("ADMIN_ROLE", "leads:admin"),

		// Webhook configuration
		WebhookVerifyToken: os.Getenv("WEBHOOK_VERIFY_TOKEN"),
		MetaAppSecret:      os.Getenv("META_APP_SECRET"),
		GoogleWebhookKey:   os.Getenv("GOOGLE_WEBHOOK_KEY"),
		WebhookConcurrency: getEnvAsIntOrDefault("WEBHOOK_CONCURRENCY", 4),

		// Phone verification configuration
		VerificationStore:         store,
		VerificationTTL:           verificationTTL,
		VerificationCodeLength:    getEnvAsIntOrDefault("VERIFICATION_CODE_LENGTH", 6),
		VerificationMaxAttempts:   getEnvAsIntOrDefault("VERIFICATION_MAX_ATTEMPTS", 5),
		VerificationSweepInterval: getEnvAsDurationOrDefault("VERIFICATION_SWEEP_INTERVAL", time.Minute),
		VerificationChannels:      parseCommaSeparatedList(getEnvOrDefault("VERIFICATION_CHANNELS", "whatsapp,sms,push")),
		VerificationMessage:       getEnvOrDefault("VERIFICATION_MESSAGE", "Olá {name}, seu código de verificação é {code}. Ele expira em {minutes} minutos."),
		VerificationIssueLimit:    getEnvAsIntOrDefault("VERIFICATION_ISSUE_LIMIT", 3),
		VerificationIssueWindow:   getEnvAsDurationOrDefault("VERIFICATION_ISSUE_WINDOW", 15*time.Minute),
		VerificationGlobalLimit:   getEnvAsIntOrDefault("VERIFICATION_GLOBAL_LIMIT_PER_MINUTE", 120),
		DefaultPhoneRegion:        getEnvOrDefault("DEFAULT_PHONE_REGION", "BR"),

		// WhatsApp HSM configuration
		WhatsAppEnabled:      getEnvAsBoolOrDefault("WHATSAPP_ENABLED", false),
		WhatsAppBaseURL:      getEnvOrDefault("WHATSAPP_API_BASE_URL", ""),
		WhatsAppUsername:     os.Getenv("WHATSAPP_API_USERNAME"),
		WhatsAppPassword:     os.Getenv("WHATSAPP_API_PASSWORD"),
		WhatsAppHSMID:        getEnvOrDefault("WHATSAPP_HSM_ID", ""),
		WhatsAppCostCenterID: getEnvOrDefault("WHATSAPP_COST_CENTER_ID", "0"),
		WhatsAppCampaignName: getEnvOrDefault("WHATSAPP_CAMPAIGN_NAME", "download-otp"),

		// SMS configuration
		SMSEnabled:        getEnvAsBoolOrDefault("SMS_ENABLED", false),
		SMSProviderURL:    getEnvOrDefault("SMS_PROVIDER_URL", ""),
		SMSAPIKey:         os.Getenv("SMS_API_KEY"),
		SMSSourceNumber:   getEnvOrDefault("SMS_SOURCE_NUMBER", ""),
		SMSRetryCount:     getEnvAsIntOrDefault("SMS_RETRY_COUNT", 1),
		SMSValidityPeriod: getEnvAsIntOrDefault("SMS_VALIDITY_PERIOD", 300),

		// Push notification configuration
		PushEnabled: getEnvAsBoolOrDefault("PUSH_ENABLED", false),
		PushURL:     getEnvOrDefault("PUSH_URL", ""),
		PushToken:   os.Getenv("PUSH_TOKEN"),

		// Lead notification configuration
		SMTPHost:         getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:         getEnvAsIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),
		LeadNotifyEmails: parseCommaSeparatedList(getEnvOrDefault("LEAD_NOTIFY_EMAILS", "")),
		AMQPURL:          os.Getenv("AMQP_URL"),
		AMQPExchange:     getEnvOrDefault("AMQP_EXCHANGE", "leads"),
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c != nil && c.Environment == "production"
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseCommaSeparatedList splits a comma separated value, dropping blanks
func parseCommaSeparatedList(value string) []string {
	result := []string{}
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
