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
	"go.uber.org/zap"
)

var (
	printSecret    = pflag.Bool("print-secret", false, "Prints a freshly generated JWT secret and exits")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"mongo", "sqlite", "postgres", "memory"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Every key that can also come from the environment, e.g. db.uri <- DB_URI
var envKeys = []string{
	"app.log_level",

	"host.port",
	"host.cors",

	"jwt.secret",
	"jwt.expiry",

	"db.driver",
	"db.uri",
	"db.name",
	"db.dsn",
	"db.timeout",

	"mail.enabled",
	"mail.host",
	"mail.port",
	"mail.username",
	"mail.password",
	"mail.sender",

	"otp.length",
	"otp.ttl",
	"otp.resend_cooldown",
	"otp.cleanup_interval",

	"redis.enabled",
	"redis.addr",
	"redis.password",
	"redis.db",

	"security.rate_limit",
	"items.max_per_user",
	"cache.ttl",

	"storage.enabled",
	"aws.access_key",
	"aws.secret_access_key",
	"aws.region",
	"aws.bucket",
	"aws.endpoint",
	"aws.public_url",
	"upload.max_size",
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 5000)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("jwt.expiry", "720h")

	v.SetDefault("db.driver", "mongo")
	v.SetDefault("db.uri", "mongodb://localhost:27017")
	v.SetDefault("db.name", "rental")
	v.SetDefault("db.dsn", "rental.db")
	v.SetDefault("db.timeout", "10s")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("otp.length", 6)
	v.SetDefault("otp.ttl", "2m")
	v.SetDefault("otp.resend_cooldown", "60s")
	v.SetDefault("otp.cleanup_interval", "1h")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.rate_limit", 20)
	v.SetDefault("items.max_per_user", 10)
	v.SetDefault("cache.ttl", "0s")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("upload.max_size", 5)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if *printSecret {
		fmt.Println(genSecret())
		os.Exit(0)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range envKeys {
		v.BindEnv(k)
	}

	setDefaults()

	// The config file is optional, the environment alone is enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret. Please set JWT_SECRET or jwt.secret in the config.toml file.\nHere's a random one you can use:\n\n" + genSecret())
		os.Exit(0)
	}

	if err := Validate(); err != nil {
		return err
	}

	// Megabytes in the config, bytes everywhere else
	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

// Validate checks the loaded values
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetDuration("jwt.expiry") <= 0 {
		return errors.New("jwt.expiry must be bigger than 0")
	}

	switch driver := v.GetString("db.driver"); {
	case !slices.Contains(validDrivers, driver):
		return fmt.Errorf("invalid database driver %q, expected one of %s", driver, strings.Join(validDrivers, ", "))
	case driver == "mongo" && v.GetString("db.uri") == "":
		return errors.New("db.uri can't be empty when using mongo")
	case (driver == "sqlite" || driver == "postgres") && v.GetString("db.dsn") == "":
		return errors.New("db.dsn can't be empty")
	}

	if v.GetDuration("db.timeout") <= 0 {
		return errors.New("db.timeout must be bigger than 0")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail.host can't be empty")
		}
		if v.GetString("mail.sender") == "" {
			return errors.New("mail.sender can't be empty")
		}
	} else {
		zap.L().Warn("Mail is disabled, OTP codes will only be logged")
	}

	if l := v.GetInt("otp.length"); l < 4 || l > 10 {
		return errors.New("otp.length must be between 4 and 10")
	}

	if v.GetDuration("otp.ttl") <= 0 {
		return errors.New("otp.ttl must be bigger than 0")
	}

	if v.GetDuration("otp.cleanup_interval") <= 0 {
		return errors.New("otp.cleanup_interval must be bigger than 0")
	}

	if v.GetBool("redis.enabled") && v.GetString("redis.addr") == "" {
		return errors.New("redis.addr can't be empty")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetInt("items.max_per_user") <= 0 {
		return errors.New("items.max_per_user must be bigger than 0")
	}

	if v.GetBool("storage.enabled") {
		if v.GetString("aws.access_key") == "" {
			return errors.New("access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.public_url") == "" {
			return errors.New("public url can't be empty")
		}
	}

	if v.GetInt64("upload.max_size") <= 0 {
		return errors.New("max upload size must be bigger than 0")
	}

	return nil
}
