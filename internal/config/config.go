package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Keycloak   KeycloakConfig   `mapstructure:"keycloak"`
	Validation ValidationConfig `mapstructure:"validation"`
	TTL        TTLConfig        `mapstructure:"ttl"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id"`
	Topics          []string `mapstructure:"topics"`
	// OutputTopic receives every stored interpretation. Empty disables publishing.
	OutputTopic string `mapstructure:"output_topic"`
}

type KeycloakConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// AdminRealm is the realm used to obtain admin access tokens (usually "master").
	AdminRealm string `mapstructure:"admin_realm"`
	// AdminClientID and AdminClientSecret are credentials for the admin API client.
	AdminClientID     string `mapstructure:"admin_client_id"`
	AdminClientSecret string `mapstructure:"admin_client_secret"`
	// JWKSRealms lists the realms whose tokens the HTTP API accepts.
	JWKSRealms []string `mapstructure:"jwks_realms"`
}

type ValidationConfig struct {
	// OrgNameOverride replaces every organization name with a fixed client id.
	OrgNameOverride string `mapstructure:"org_name_override"`
}

type TTLConfig struct {
	RetentionDays int `mapstructure:"retention_days"` // Default: 90
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: ADMIN_EVENTS_
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8091")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "admin_events")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group_id", "admin-event-interpreter-group")
	v.SetDefault("kafka.topics", []string{"keycloak-admin-events", "iam-events"})
	v.SetDefault("kafka.output_topic", "admin-event-interpretations")
	v.SetDefault("keycloak.base_url", "http://localhost:8081")
	v.SetDefault("keycloak.admin_realm", "master")
	v.SetDefault("keycloak.admin_client_id", "admin-event-interpreter")
	v.SetDefault("keycloak.jwks_realms", []string{"master"})
	v.SetDefault("validation.org_name_override", "")
	v.SetDefault("ttl.retention_days", 90)

	// Environment variables (e.g. ADMIN_EVENTS_DATABASE_HOST -> database.host)
	v.SetEnvPrefix("ADMIN_EVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support simple env vars without prefix for Docker Compose convenience
	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("keycloak.base_url", "KEYCLOAK_URL")
	_ = v.BindEnv("keycloak.admin_realm", "KEYCLOAK_ADMIN_REALM")
	_ = v.BindEnv("keycloak.admin_client_id", "KEYCLOAK_ADMIN_CLIENT_ID")
	_ = v.BindEnv("keycloak.admin_client_secret", "KEYCLOAK_ADMIN_CLIENT_SECRET")
	_ = v.BindEnv("server.port", "PORT")

	// Try loading config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // Not required

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Comma-separated lists from the environment arrive as a single element.
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Kafka.Topics = splitList(cfg.Kafka.Topics)
	cfg.Keycloak.JWKSRealms = splitList(cfg.Keycloak.JWKSRealms)

	if cfg.TTL.RetentionDays <= 0 {
		return nil, fmt.Errorf("ttl.retention_days must be positive, got %d", cfg.TTL.RetentionDays)
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" dbname=" + d.Name +
		" user=" + d.User +
		" password=" + d.Password +
		" sslmode=disable"
}

// MigrateURL returns the pgx5:// URL expected by golang-migrate.
func (d DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// JWKSURLs returns the certificate endpoints of the accepted realms.
func (k KeycloakConfig) JWKSURLs() []string {
	base := strings.TrimRight(k.BaseURL, "/")
	urls := make([]string, 0, len(k.JWKSRealms))
	for _, realm := range k.JWKSRealms {
		urls = append(urls, base+"/realms/"+url.PathEscape(realm)+"/protocol/openid-connect/certs")
	}
	return urls
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
