package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Catalog struct {
		SeedFile string
	}
	Assistant struct {
		SettleMs   int
		DisplayMs  int
		MaxResults int
	}
	Session struct {
		TokenSecret   string
		TokenExpMin   int
		TokenSkewSecs int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("assistant.settle_ms", 1500)
	v.SetDefault("assistant.display_ms", 2000)
	v.SetDefault("assistant.max_results", 5)

	v.SetDefault("session.token_exp_min", 720)
	v.SetDefault("session.token_skew_secs", 60)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	v.BindEnv("catalog.seed_file", "CATALOG_SEED")

	v.BindEnv("assistant.settle_ms", "ASSISTANT_SETTLE_MS")
	v.BindEnv("assistant.display_ms", "ASSISTANT_DISPLAY_MS")
	v.BindEnv("assistant.max_results", "ASSISTANT_MAX_RESULTS")

	v.BindEnv("session.token_secret", "SESSION_TOKEN_SECRET")
	v.BindEnv("session.token_exp_min", "SESSION_TOKEN_EXP_MIN")
	v.BindEnv("session.token_skew_secs", "SESSION_TOKEN_SKEW_SECS")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Redis.Addr = v.GetString("redis.addr")
	c.Redis.Password = v.GetString("redis.password")
	c.Redis.DB = v.GetInt("redis.db")

	c.Catalog.SeedFile = v.GetString("catalog.seed_file")

	c.Assistant.SettleMs = v.GetInt("assistant.settle_ms")
	c.Assistant.DisplayMs = v.GetInt("assistant.display_ms")
	c.Assistant.MaxResults = v.GetInt("assistant.max_results")

	c.Session.TokenSecret = v.GetString("session.token_secret")
	c.Session.TokenExpMin = v.GetInt("session.token_exp_min")
	c.Session.TokenSkewSecs = v.GetInt("session.token_skew_secs")

	log.Printf("config loaded: port=%s redis=%s", c.Server.Port, c.Redis.Addr)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
