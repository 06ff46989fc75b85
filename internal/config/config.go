package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	DefaultBranch         string
	MenuCacheTTLSeconds   int
	AuthSecret            string
	AccessTokenTTLMinutes int
	DailySalaryRate       decimal.Decimal
	DailyRentRate         decimal.Decimal
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	menuTTL, err := strconv.Atoi(getEnv("MENU_CACHE_TTL_SECONDS", "60"))
	if err != nil || menuTTL < 1 {
		menuTTL = 60
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		DefaultBranch:         getEnv("DEFAULT_BRANCH", "koramangala"),
		MenuCacheTTLSeconds:   menuTTL,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		DailySalaryRate:       decimalEnv("DAILY_SALARY_RATE", "1200"),
		DailyRentRate:         decimalEnv("DAILY_RENT_RATE", "800"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func decimalEnv(key string, fallback string) decimal.Decimal {
	val, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil || val.IsNegative() {
		return decimal.RequireFromString(fallback)
	}
	return val
}
