package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServerURL            string
	Env                  string
	Username             string
	Password             string
	DebugPort            string
	HistoryPageSize      int
	SendRatePerSecond    int
	SendBurst            int
	RefreshSlackSeconds  int
	ReconnectDelayMillis int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func Load() Config {
	return Config{
		ServerURL:            getenv("SERVER_URL", "http://localhost:8080"),
		Env:                  getenv("APP_ENV", "dev"),
		Username:             getenv("CHAT_USERNAME", ""),
		Password:             getenv("CHAT_PASSWORD", ""),
		DebugPort:            getenv("DEBUG_PORT", "9090"),
		HistoryPageSize:      getenvInt("HISTORY_PAGE_SIZE", 10),
		SendRatePerSecond:    getenvInt("WS_SEND_RATE", 5),
		SendBurst:            getenvInt("WS_SEND_BURST", 10),
		RefreshSlackSeconds:  getenvInt("TOKEN_REFRESH_SLACK_SECONDS", 60),
		ReconnectDelayMillis: getenvInt("RECONNECT_DELAY_MILLIS", 2000),
	}
}
