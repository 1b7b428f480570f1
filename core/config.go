package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName         string
		Env             string // DEV (default), TEST, QA, PROD
		Debug           bool
		TestMode        bool
		Build           string
		SecretKey       string
		FrontendBaseURL string

		DefaultFromName  string
		DefaultFromAddr  string
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Store    StoreConfig
	}

	ServerConfig struct {
		Host                       string
		Port                       int
		DebugHost                  string
		ShutdownTimeout            time.Duration
		JWTExpirationDelta         time.Duration
		JWTRefreshExpirationDelta  time.Duration
		JWTRememberExpirationDelta time.Duration // "remember me" sessions; longer than JWTExpirationDelta
	}

	DatabaseConfig struct {
		Engine        string // memory | postgres
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	// StoreConfig configures the key-value store backing the progress tracker.
	StoreConfig struct {
		Engine        string // memory | badger | redis
		BadgerPath    string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Elimu")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w2dg=7#0b&ppq$4f(yrx+5o8_u!e9k%zjmv13c6h*aslt-n&i@")
	v.SetDefault("frontendBaseURL", "http://localhost:4200")
	v.SetDefault("defaultFromName", "Elimu")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("debugHost", "0.0.0.0:4000")
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("jwtRememberExpirationDelta", 30*24*time.Hour)

	v.SetDefault("databaseEngine", "memory")
	v.SetDefault("databaseName", "elimu")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("storeEngine", "memory")
	v.SetDefault("storeBadgerPath", filepath.Join(os.TempDir(), "elimu-progress"))
	v.SetDefault("storeRedisAddr", "localhost:6379")
	v.SetDefault("storeRedisDB", 0)

	env := os.Getenv("ENV")
	testMode := false
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Debug:                     v.GetBool("debug"),
		TestMode:                  testMode,
		Build:                     v.GetString("build"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		DefaultFromName:           v.GetString("defaultFromName"),
		DefaultFromAddr:           v.GetString("defaultFromAddr"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                       v.GetString("serverHost"),
			Port:                       v.GetInt("serverPort"),
			DebugHost:                  v.GetString("debugHost"),
			ShutdownTimeout:            v.GetDuration("shutdownTimeout"),
			JWTExpirationDelta:         v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta:  v.GetDuration("jwtRefreshExpirationDelta"),
			JWTRememberExpirationDelta: v.GetDuration("jwtRememberExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetInt("databasePort"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Store: StoreConfig{
			Engine:        v.GetString("storeEngine"),
			BadgerPath:    v.GetString("storeBadgerPath"),
			RedisAddr:     v.GetString("storeRedisAddr"),
			RedisPassword: v.GetString("storeRedisPassword"),
			RedisDB:       v.GetInt("storeRedisDB"),
		},
	}
}
