package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"gigboard/api"
)

func main() {
	args := ParseArgs()
	if !args.Validate() {
		panic("missing arguments")
	}
	slog.SetDefault(newLogger(args.LogLevel, args.LogFormat))

	server, err := api.NewServer(args.ServerConfig)
	if err != nil {
		panic(err)
	}
	defer server.Close()
	server.Start()

	router := gin.Default()
	server.RegisterRoutes(router)
	slog.Info("Server started", slog.String("url", args.ServerURL))
	if err := router.Run(args.ServerURL); err != nil {
		panic(err)
	}
}

// newLogger 依照設定建立全域日誌，format 為 json 時輸出 JSON 格式
func newLogger(level, format string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lv}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
