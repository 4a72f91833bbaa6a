package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gigboard/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")
	pflag.String("client-url", "", "frontend origin allowed to open websocket")

	// log config
	pflag.String("log-level", "info", "debug, info, warn or error")
	pflag.String("log-format", "text", "text or json")

	// db config
	pflag.String("db-driver", "postgres", "postgres or sqlite")
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")
	pflag.String("db-sqlite-path", "gigboard.db", "")
	pflag.Bool("db-auto-migrate", false, "")

	// redis config
	pflag.String("redis-addr", "", "leave empty to run as a single instance")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")

	// redis stream keys
	pflag.String("redis-stream-key-for-events", "gigboard-shared-event-stream", "")

	// auth config
	pflag.String("auth-jwt-secret", "", "")
	pflag.String("auth-cookie-name", "token", "")

	// sse config
	pflag.Duration("sse-heartbeat", 30*time.Second, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("GIGBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		LogLevel:  viper.GetString("log-level"),
		LogFormat: viper.GetString("log-format"),
		ServerConfig: api.ServerConfig{
			ClientURL: viper.GetString("client-url"),
			DB: api.DBConfig{
				Driver:      viper.GetString("db-driver"),
				User:        viper.GetString("db-user"),
				Password:    viper.GetString("db-password"),
				Host:        viper.GetString("db-host"),
				Port:        viper.GetInt("db-port"),
				Database:    viper.GetString("db-database"),
				Schema:      viper.GetString("db-schema"),
				SQLitePath:  viper.GetString("db-sqlite-path"),
				AutoMigrate: viper.GetBool("db-auto-migrate"),
			},
			Redis: api.RedisConfig{
				Addr:     viper.GetString("redis-addr"),
				Password: viper.GetString("redis-password"),
				DB:       viper.GetInt("redis-db"),
				StreamKeys: api.RedisStreamKeys{
					Events: viper.GetString("redis-stream-key-for-events"),
				},
			},
			Auth: api.AuthConfig{
				JWTSecret:  viper.GetString("auth-jwt-secret"),
				CookieName: viper.GetString("auth-cookie-name"),
			},
			SSE: api.SSEConfig{
				Heartbeat: viper.GetDuration("sse-heartbeat"),
			},
		},
	}
}

type Args struct {
	ServerURL    string
	LogLevel     string
	LogFormat    string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	if args.ServerURL == "" || args.ServerConfig.Auth.JWTSecret == "" {
		return false
	}
	switch args.ServerConfig.DB.Driver {
	case "sqlite":
		return args.ServerConfig.DB.SQLitePath != ""
	case "postgres":
		return args.ServerConfig.DB.Host != "" && args.ServerConfig.DB.Database != ""
	default:
		return false
	}
}
