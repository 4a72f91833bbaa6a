package api

import "time"

type ServerConfig struct {
	// ClientURL 是前端網址，允許其建立 WebSocket 連線
	ClientURL string

	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	SSE   SSEConfig
}

type DBConfig struct {
	// Driver 為 postgres 或 sqlite
	Driver      string
	User        string
	Password    string
	Host        string
	Port        int
	Database    string
	Schema      string
	SQLitePath  string
	AutoMigrate bool
}

// RedisConfig 的 Addr 為空時，即時事件只在單一實例內廣播
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	Events string
}

type AuthConfig struct {
	JWTSecret  string
	CookieName string
}

type SSEConfig struct {
	Heartbeat time.Duration
}
