package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envJWTSecret             = "JWT_SECRET"
	envJWTExpiry             = "JWT_EXPIRY_MINUTES"
	envHubHost               = "HUB_HOST"
	envHubAPIPrefix          = "HUB_API_PREFIX"
	envHubClientID           = "HUB_CLIENT_ID"
	envHubAPIToken           = "HUB_API_TOKEN"
	envHubCallbackURL        = "HUB_OAUTH_CALLBACK_URL"
	envHubAccessScopes       = "HUB_ACCESS_SCOPES"
	envUploadDir             = "UPLOAD_DIR"
	envPublicBaseURL         = "PUBLIC_BASE_URL"
	envMaxUploadSize         = "MAX_UPLOAD_SIZE"
	envNiimathPath           = "NIIMATH_PATH"
	envNiimathTimeout        = "NIIMATH_TIMEOUT"
	envArchiveBucket         = "ARCHIVE_BUCKET"
	envAWSRegion             = "REGION"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envCORSOrigins           = "CORS_ORIGINS"
	envPaginationPageSize    = "PAGINATION_PAGE_SIZE"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "sceneservice"
	defaultDBUser             = "sceneservice_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 5
	defaultJWTExpiry          = 7 * 24 * time.Hour
	defaultHubAPIPrefix       = "/hub/api"
	defaultHubCallbackURL     = "/oauth_callback"
	defaultHubAccessScopes    = "access:services"
	defaultUploadDir          = "/tmp/uploads"
	defaultPublicBaseURL      = "http://localhost:8080"
	defaultMaxUploadSize      = "512M"
	defaultNiimathPath        = "niimath"
	defaultNiimathTimeout     = 10 * time.Minute
	defaultCORSOrigins        = "*"
	defaultPageSize           = 100
	minJWTSecretLength        = 32
	minUniqueCharsInSecret    = 16
	minRepeatedCharThreshold  = 4
	maxRepeatedChars          = 2

	errPortRequiredFmt         = "PORT must be set"
	errDBPasswordRequiredFmt   = "DB_PASSWORD must be set"
	errHubHostRequiredFmt      = "HUB_HOST must be set"
	errHubClientIDRequiredFmt  = "HUB_CLIENT_ID must be set"
	errHubAPITokenRequiredFmt  = "HUB_API_TOKEN must be set"
	errJWTSecretRequiredFmt    = "JWT_SECRET must be set"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errRequiredEnvNotSetFmt    = "required environment variable %s is not set"
	errArchiveRegionFmt        = "REGION must be set when ARCHIVE_BUCKET is configured"
	errArchiveCredentialsFmt   = "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set when ARCHIVE_BUCKET is configured"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Hub        HubConfig
	Upload     UploadConfig
	Processing ProcessingConfig
	Archive    ArchiveConfig
	App        AppConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

type JWTConfig struct {
	Secret         string
	ExpiryDuration time.Duration
}

// HubConfig describes the JupyterHub-style OAuth2 provider the service
// delegates authentication to.
type HubConfig struct {
	Host         string
	APIPrefix    string
	ClientID     string
	APIToken     string
	CallbackURL  string
	AccessScopes []string
}

type UploadConfig struct {
	Dir           string
	PublicBaseURL string
	MaxUploadSize string
}

type ProcessingConfig struct {
	NiimathPath string
	Timeout     time.Duration
}

// ArchiveConfig is optional; processed outputs are mirrored to S3 only
// when Bucket is non-empty.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type AppConfig struct {
	CORSOrigins []string
	PageSize    int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Database: DatabaseConfig{
			Host:     getEnv(envDBHost, defaultDBHost),
			Port:     getIntEnv(envDBPort, defaultDBPort),
			Database: getEnv(envDBName, defaultDBName),
			User:     getEnv(envDBUser, defaultDBUser),
			Password: requireEnv(envDBPassword),
			SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
			MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
		},
		JWT: JWTConfig{
			Secret:         requireEnv(envJWTSecret),
			ExpiryDuration: getDurationEnv(envJWTExpiry, defaultJWTExpiry),
		},
		Hub: HubConfig{
			Host:         requireEnv(envHubHost),
			APIPrefix:    getEnv(envHubAPIPrefix, defaultHubAPIPrefix),
			ClientID:     requireEnv(envHubClientID),
			APIToken:     requireEnv(envHubAPIToken),
			CallbackURL:  getEnv(envHubCallbackURL, defaultHubCallbackURL),
			AccessScopes: getListEnv(envHubAccessScopes, defaultHubAccessScopes),
		},
		Upload: UploadConfig{
			Dir:           getEnv(envUploadDir, defaultUploadDir),
			PublicBaseURL: getEnv(envPublicBaseURL, defaultPublicBaseURL),
			MaxUploadSize: getEnv(envMaxUploadSize, defaultMaxUploadSize),
		},
		Processing: ProcessingConfig{
			NiimathPath: getEnv(envNiimathPath, defaultNiimathPath),
			Timeout:     getDurationEnv(envNiimathTimeout, defaultNiimathTimeout),
		},
		Archive: ArchiveConfig{
			Bucket:          os.Getenv(envArchiveBucket),
			Region:          os.Getenv(envAWSRegion),
			AccessKeyID:     os.Getenv(envAWSAccessKeyID),
			SecretAccessKey: os.Getenv(envAWSSecretAccessKey),
		},
		App: AppConfig{
			CORSOrigins: getListEnv(envCORSOrigins, defaultCORSOrigins),
			PageSize:    getIntEnv(envPaginationPageSize, defaultPageSize),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	if c.Database.Password == "" {
		return fmt.Errorf(errDBPasswordRequiredFmt)
	}

	if c.Hub.Host == "" {
		return fmt.Errorf(errHubHostRequiredFmt)
	}

	if c.Hub.ClientID == "" {
		return fmt.Errorf(errHubClientIDRequiredFmt)
	}

	if c.Hub.APIToken == "" {
		return fmt.Errorf(errHubAPITokenRequiredFmt)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf(errJWTSecretRequiredFmt)
	}

	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.JWT.Secret) {
		return fmt.Errorf(errJWTSecretLowEntropyFmt)
	}

	if c.Archive.Bucket != "" {
		if c.Archive.Region == "" {
			return fmt.Errorf(errArchiveRegionFmt)
		}
		if c.Archive.AccessKeyID == "" || c.Archive.SecretAccessKey == "" {
			return fmt.Errorf(errArchiveCredentialsFmt)
		}
	}

	return nil
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	uniqueChars := len(charCounts)
	if uniqueChars < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AuthorizeURL is the hub endpoint the browser is redirected to for login.
func (c *HubConfig) AuthorizeURL() string {
	return c.Host + c.APIPrefix + "/oauth2/authorize?response_type=code&client_id=" + c.ClientID
}

// TokenURL is the hub endpoint the authorization code is exchanged at.
func (c *HubConfig) TokenURL() string {
	return c.Host + c.APIPrefix + "/oauth2/token"
}

// UserURL is the hub endpoint that resolves an access token to a user model.
func (c *HubConfig) UserURL() string {
	return c.Host + c.APIPrefix + "/user"
}

// RedirectURI is the absolute callback URL registered with the hub.
func (c *HubConfig) RedirectURI(publicBaseURL string) string {
	return publicBaseURL + c.CallbackURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf(errRequiredEnvNotSetFmt, key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
