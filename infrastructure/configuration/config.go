package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"youtube-uploader/infrastructure/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         App         `mapstructure:"app"`
	YouTube     YouTube     `mapstructure:"youtube"`
	Upload      Upload      `mapstructure:"upload"`
	RedisClient RedisClient `mapstructure:"redisClient"`
	Pubsub      Pubsub      `mapstructure:"pubsub"`
	ServiceBus  ServiceBus  `mapstructure:"serviceBus"`
	Bunny       Bunny       `mapstructure:"bunny"`
	Auth        Auth        `mapstructure:"auth"`
	Logger      Logger      `mapstructure:"logger"`
}

type App struct {
	Env          string   `mapstructure:"env"`
	Port         int      `mapstructure:"port"`
	TLSEnabled   bool     `mapstructure:"tlsEnabled"`
	TLSCertFile  string   `mapstructure:"tlsCertFile"`
	TLSKeyFile   string   `mapstructure:"tlsKeyFile"`
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

// Upload bounds the fetch and publish steps of one request.
type Upload struct {
	MaxBytes  int64         `mapstructure:"maxBytes"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ChunkSize int           `mapstructure:"chunkSize"`
	TempDir   string        `mapstructure:"tempDir"`
	JobTTL    time.Duration `mapstructure:"jobTTL"`
}

type RedisClient struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisClient) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type Pubsub struct {
	ProjectID string `mapstructure:"projectID"`
	Topic     string `mapstructure:"topic"`
}

// ServiceBus is an optional second sink for upload-finished events.
type ServiceBus struct {
	Namespace        string `mapstructure:"namespace"`
	ConnectionString string `mapstructure:"connectionString"`
	Queue            string `mapstructure:"queue"`
}

type Bunny struct {
	APIKey string `mapstructure:"apiKey"`
}

// Auth controls the operator consent flow used to mint a refresh token.
type Auth struct {
	ConsentFlowEnabled bool `mapstructure:"consentFlowEnabled"`
}

type Logger struct {
	Level string `mapstructure:"level"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string][]string{
	"app.env":                     {"ENV"},
	"app.port":                    {"APP_PORT", "PORT"},
	"app.tlsEnabled":              {"TLS_ENABLED"},
	"app.tlsCertFile":             {"TLS_CERT_FILE"},
	"app.tlsKeyFile":              {"TLS_KEY_FILE"},
	"app.allowOrigins":            {"CORS_ALLOW_ORIGINS"},
	"youtube.clientId":            {"YOUTUBE_CLIENT_ID"},
	"youtube.clientSecret":        {"YOUTUBE_CLIENT_SECRET"},
	"youtube.refreshToken":        {"YOUTUBE_REFRESH_TOKEN"},
	"youtube.tokenUri":            {"YOUTUBE_TOKEN_URI"},
	"youtube.apiEndpoint":         {"YOUTUBE_API_ENDPOINT"},
	"youtube.redirectUrl":         {"YOUTUBE_REDIRECT_URL"},
	"youtube.tokenTimeout":        {"YOUTUBE_TOKEN_TIMEOUT"},
	"upload.maxBytes":             {"UPLOAD_MAX_BYTES"},
	"upload.timeout":              {"UPLOAD_TIMEOUT"},
	"upload.chunkSize":            {"UPLOAD_CHUNK_SIZE"},
	"upload.tempDir":              {"UPLOAD_TEMP_DIR"},
	"upload.jobTTL":               {"JOB_TTL"},
	"redisClient.host":            {"REDIS_HOST"},
	"redisClient.port":            {"REDIS_PORT"},
	"redisClient.username":        {"REDIS_USERNAME"},
	"redisClient.password":        {"REDIS_PASSWORD"},
	"redisClient.db":              {"REDIS_DB"},
	"pubsub.projectID":            {"PUBSUB_PROJECT_ID"},
	"pubsub.topic":                {"PUBSUB_TOPIC"},
	"serviceBus.namespace":        {"SERVICEBUS_NAMESPACE"},
	"serviceBus.connectionString": {"SERVICEBUS_CONNECTION_STRING"},
	"serviceBus.queue":            {"SERVICEBUS_QUEUE"},
	"bunny.apiKey":                {"BUNNY_API_KEY"},
	"auth.consentFlowEnabled":     {"AUTH_CONSENT_FLOW_ENABLED"},
	"logger.level":                {"LOG_LEVEL"},
}

// DefaultChunkSize is the resumable upload chunk size in bytes.
const DefaultChunkSize = 8 << 20

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 10001)
	v.SetDefault("app.allowOrigins", []string{"*"})
	v.SetDefault("youtube.tokenUri", DefaultTokenURI)
	v.SetDefault("youtube.tokenTimeout", 30*time.Second)
	v.SetDefault("upload.maxBytes", int64(2<<30))
	v.SetDefault("upload.timeout", 30*time.Minute)
	v.SetDefault("upload.chunkSize", DefaultChunkSize)
	v.SetDefault("upload.tempDir", os.TempDir())
	v.SetDefault("upload.jobTTL", 7*24*time.Hour)
	v.SetDefault("redisClient.port", "6379")
	v.SetDefault("logger.level", "info")
}

// LoadEnvFromFile loads KEY=VALUE pairs from files such as config.env and .env.
// Variables already present in the environment are never overridden.
func LoadEnvFromFile(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.GetLogger().WithField("file", p).WithField("error", err).Warn("Failed to load env file")
			continue
		}
		logger.GetLogger().WithField("file", p).Info("Loaded env file")
	}
}

// LoadConfig reads config[-ENV].json (optional) and the environment into a new Config.
// A Config with missing YouTube credentials is returned together with a ConfigError.
func LoadConfig() (*Config, error) {
	v := viper.New()
	name := getConfig()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	setDefaults(v)
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file %s: %w", name, err)
		}
		logger.GetLogger().WithField("config", name).Debug("Config file not found, using environment only")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	initApp(&c)
	c.YouTube.applyDefaults(c.App)

	return &c, c.Validate()
}

func getConfig() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(c *Config) {
	if c.App.Port == 0 {
		c.App.Port = 10001
	}
	// Prefer local certs if TLS enabled and paths not provided
	if c.App.TLSEnabled {
		if c.App.TLSCertFile == "" {
			if _, err := os.Stat("certs/localhost.crt"); err == nil {
				c.App.TLSCertFile = "certs/localhost.crt"
			}
		}
		if c.App.TLSKeyFile == "" {
			if _, err := os.Stat("certs/localhost.key"); err == nil {
				c.App.TLSKeyFile = "certs/localhost.key"
			}
		}
	}
	origins := c.App.AllowOrigins[:0]
	for _, o := range c.App.AllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.App.AllowOrigins = origins
	// A zero chunk size switches the YouTube client to a single-request
	// upload, which reports no progress.
	if c.Upload.ChunkSize <= 0 {
		logger.GetLogger().WithField("chunkSize", c.Upload.ChunkSize).Warn("Upload chunk size must be positive - using the default")
		c.Upload.ChunkSize = DefaultChunkSize
	}
}

// Validate reports a ConfigError naming every missing required setting.
func (c *Config) Validate() error {
	return c.YouTube.validate()
}
