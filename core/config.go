package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage engines
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugAddress              string
		DisableReqLogs            bool
		CORSOrigins               []string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		PasswordResetTimeoutDelta time.Duration
		Storage                   string // postgres | memory
		SendgridApiKey            string
		RollbarToken              string
		Server                    ServerConfig
		Database                  DatabaseConfig
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig reads the configuration from the environment.
// Variables are prefixed by the value of ENV (DEV by default), e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("app.name", "Campus")
	v.SetDefault("app.secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("app.frontendBaseURL", "http://localhost:3000")
	v.SetDefault("app.defaultFromEmail", "noreply@localhost")
	v.SetDefault("app.passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("sendgrid.apiKey", "")
	v.SetDefault("rollbar.token", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.corsOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "campus")
	v.SetDefault("database.user", "campus")
	v.SetDefault("database.password", "campus")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	// load .env if it exists (ignore if it does not)
	if root, ok := Getwd(); ok {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("app.defaultFromEmail"))
	if err != nil {
		fromEmail = &mail.Address{Address: v.GetString("app.defaultFromEmail")}
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  env == "TEST",
		AppName:                   v.GetString("app.name"),
		SecretKey:                 v.GetString("app.secretKey"),
		FrontendBaseURL:           v.GetString("app.frontendBaseURL"),
		DefaultFromEmail:          *fromEmail,
		PasswordResetTimeoutDelta: v.GetDuration("app.passwordResetTimeoutDelta"),
		Storage:                   strings.ToLower(v.GetString("storage")),
		SendgridApiKey:            v.GetString("sendgrid.apiKey"),
		RollbarToken:              v.GetString("rollbar.token"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugAddress:              v.GetString("server.debugAddress"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			CORSOrigins:               v.GetStringSlice("server.corsOrigins"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
	}
}
