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

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	migrateOnly       = pflag.Bool("migrate-only", false, "Runs database migrations and exits")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "local"}
	validDrivers      = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// MigrateOnly reports whether the process should stop after migrations.
func MigrateOnly() bool {
	return *migrateOnly
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.path", "database_path")
	v.BindEnv("database.host", "database_host")
	v.BindEnv("database.port", "database_port")
	v.BindEnv("database.user", "database_user")
	v.BindEnv("database.password", "database_password")
	v.BindEnv("database.name", "database_name")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("jwt.algorithm", "jwt_algorithm")
	v.BindEnv("jwt.access_expire_minutes", "jwt_access_expire_minutes")
	v.BindEnv("jwt.refresh_expire_days", "jwt_refresh_expire_days")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.root", "storage_root")
	v.BindEnv("storage.max_space", "storage_max_space")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.user", "mail_user")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("google.client_id", "google_client_id")
	v.BindEnv("google.client_secret", "google_client_secret")
	v.BindEnv("google.redirect_uri", "google_redirect_uri")
	v.BindEnv("google.token_url", "google_token_url")
	v.BindEnv("google.user_info_url", "google_user_info_url")
	v.BindEnv("google.auth_url", "google_auth_url")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "database.db")
	v.SetDefault("database.port", 5432)

	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.access_expire_minutes", 30)
	v.SetDefault("jwt.refresh_expire_days", 7)

	// MiB, converted to bytes after validation
	v.SetDefault("upload.max_size", 512)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.root", "Uploads")

	// 2 GiB per user unless overridden
	v.SetDefault("storage.max_space", int64(2)<<30)

	v.SetDefault("google.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("google.user_info_url", "https://www.googleapis.com/oauth2/v3/userinfo")
	v.SetDefault("google.auth_url", "https://accounts.google.com/o/oauth2/v2/auth")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetString("jwt.algorithm") != "HS256" && v.GetString("jwt.algorithm") != "HS384" && v.GetString("jwt.algorithm") != "HS512" {
		return errors.New("unsupported jwt signing algorithm provided")
	}

	if v.GetInt("jwt.access_expire_minutes") <= 0 {
		return errors.New("jwt.access_expire_minutes must be bigger than 0")
	}

	if v.GetInt("jwt.refresh_expire_days") <= 0 {
		return errors.New("jwt.refresh_expire_days must be bigger than 0")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.driver") == "postgres" {
		if v.GetString("database.host") == "" {
			return errors.New("database host can't be empty")
		}
		if v.GetString("database.user") == "" {
			return errors.New("database user can't be empty")
		}
		if v.GetString("database.name") == "" {
			return errors.New("database name can't be empty")
		}
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("s3.access_key_id") == "" {
				return errors.New("s3 access key id can't be empty")
			}
			if v.GetString("s3.secret_access_key") == "" {
				return errors.New("s3 secret access key can't be empty")
			}
			if v.GetString("s3.bucket") == "" {
				return errors.New("s3 bucket can't be empty")
			}
		}
	case "local":
		{
			if v.GetString("storage.root") == "" {
				return errors.New("storage root can't be empty")
			}
		}
	default:
		return errors.New("invalid storage type provided")
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt64("storage.max_space") <= 0 {
		return errors.New("storage.max_space must be bigger than 0")
	}

	if v.GetString("google.client_id") == "" || v.GetString("google.client_secret") == "" {
		fmt.Println("[WARNING]: Google OAuth credentials are missing. Only demo logins will work")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetString("mail.host") == "" {
		fmt.Println("[WARNING]: No mail host configured. Share notifications won't be delivered")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
