// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", ".", "Directory containing config.toml")
	genSecrets = pflag.Bool("gen-secrets", false, "Prints a pair of random JWT secrets and exits")

	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers        = []string{"sqlite", "postgres", "memory"}
	validHashAlgorithms = []string{"argon2id", "bcrypt"}
	validTransports     = []string{"log", "smtp", "queue"}
)

var (
	ErrSecretMissing   = errors.New("jwt secrets are missing")
	ErrSecretsIdentity = errors.New("jwt.access_secret and jwt.refresh_secret must be different")
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if *genSecrets {
		fmt.Printf("access_secret = \"%s\"\nrefresh_secret = \"%s\"\n", genSecret(), genSecret())
		os.Exit(0)
	}

	return Load(*configPath)
}

// Load reads config.toml from dir (if there is one) and the environment on
// top of the defaults, then validates the result
func Load(dir string) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.metrics", "app_metrics")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors_origins", "host_cors_origins")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("jwt.access_secret", "jwt_access_secret")
	v.BindEnv("jwt.refresh_secret", "jwt_refresh_secret")
	v.BindEnv("jwt.access_ttl", "jwt_access_ttl")
	v.BindEnv("jwt.refresh_ttl", "jwt_refresh_ttl")

	v.BindEnv("security.hash_algorithm", "security_hash_algorithm")
	v.BindEnv("security.bcrypt_cost", "security_bcrypt_cost")
	v.BindEnv("security.argon_iterations", "security_argon_iterations")
	v.BindEnv("security.argon_memory", "security_argon_memory")
	v.BindEnv("security.password_min_length", "security_password_min_length")
	v.BindEnv("security.rate_limit", "security_rate_limit")
	v.BindEnv("security.max_login_attempts", "security_max_login_attempts")
	v.BindEnv("security.lockout_window", "security_lockout_window")

	v.BindEnv("auth.activation_ttl", "auth_activation_ttl")
	v.BindEnv("auth.operation_timeout", "auth_operation_timeout")
	v.BindEnv("auth.revoke_on_reuse", "auth_revoke_on_reuse")
	v.BindEnv("auth.require_verified", "auth_require_verified")
	v.BindEnv("auth.resend_cooldown", "auth_resend_cooldown")

	v.BindEnv("mail.transport", "mail_transport")
	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.sender", "mail_sender")
	v.BindEnv("mail.verify_url", "mail_verify_url")

	v.BindEnv("redis.addr", "redis_addr")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("cleanup.schedule", "cleanup_schedule")
	v.BindEnv("cleanup.refresh_retention", "cleanup_refresh_retention")
	v.BindEnv("cleanup.unverified_ttl", "cleanup_unverified_ttl")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	v.BindEnv("transactions.default_currency", "transactions_default_currency")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.metrics", false)

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")

	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("security.hash_algorithm", "argon2id")
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.argon_iterations", 3)
	v.SetDefault("security.argon_memory", 64*1024)
	v.SetDefault("security.password_min_length", 0)
	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lockout_window", "15m")

	v.SetDefault("auth.activation_ttl", "24h")
	v.SetDefault("auth.operation_timeout", "5s")
	v.SetDefault("auth.revoke_on_reuse", true)
	v.SetDefault("auth.require_verified", false)
	v.SetDefault("auth.resend_cooldown", "1m")

	v.SetDefault("mail.transport", "log")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.verify_url", "http://localhost:5173/verify")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cleanup.schedule", "@hourly")
	v.SetDefault("cleanup.refresh_retention", "720h")
	v.SetDefault("cleanup.unverified_ttl", "720h")

	v.SetDefault("cloudflare.turnstile.enabled", false)

	v.SetDefault("transactions.default_currency", "USD")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return Validate()
}

// Validate checks the loaded values
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	switch v.GetString("database.driver") {
	case "postgres":
		if v.GetString("database.dsn") == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		if !slices.Contains(validDrivers, v.GetString("database.driver")) {
			return errors.New("invalid database driver provided")
		}
	}

	access, refresh := v.GetString("jwt.access_secret"), v.GetString("jwt.refresh_secret")
	if access == "" || refresh == "" {
		return fmt.Errorf("%w, set jwt.access_secret and jwt.refresh_secret in config.toml or the environment, for example:\n\naccess_secret = \"%s\"\nrefresh_secret = \"%s\"",
			ErrSecretMissing, genSecret(), genSecret())
	}

	if access == refresh {
		return ErrSecretsIdentity
	}

	if v.GetDuration("jwt.access_ttl") <= 0 || v.GetDuration("jwt.refresh_ttl") <= 0 {
		return errors.New("jwt ttls must be bigger than 0")
	}

	if v.GetDuration("jwt.access_ttl") >= v.GetDuration("jwt.refresh_ttl") {
		return errors.New("jwt.access_ttl must be shorter than jwt.refresh_ttl")
	}

	if !slices.Contains(validHashAlgorithms, v.GetString("security.hash_algorithm")) {
		return errors.New("invalid hash algorithm provided")
	}

	if c := v.GetInt("security.bcrypt_cost"); c < 4 || c > 31 {
		return errors.New("security.bcrypt_cost must be between 4 and 31")
	}

	if v.GetInt("security.argon_iterations") <= 0 || v.GetInt("security.argon_memory") <= 0 {
		return errors.New("argon parameters must be bigger than 0")
	}

	if v.GetDuration("auth.activation_ttl") <= 0 {
		return errors.New("auth.activation_ttl must be bigger than 0")
	}

	switch v.GetString("mail.transport") {
	case "smtp", "queue":
		if v.GetString("mail.host") == "" || v.GetString("mail.sender") == "" {
			return errors.New("mail.host and mail.sender are required to send mail")
		}
	default:
		if !slices.Contains(validTransports, v.GetString("mail.transport")) {
			return errors.New("invalid mail transport provided")
		}
	}

	if v.GetBool("cloudflare.turnstile.enabled") && v.GetString("cloudflare.turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	if len(v.GetString("transactions.default_currency")) != 3 {
		return errors.New("transactions.default_currency must be a 3 letter code")
	}

	return nil
}
