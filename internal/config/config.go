package config

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port        string   `mapstructure:"port"`
		Env         string   `mapstructure:"env"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"app"`
	Gemini struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"gemini"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
	RateLimit struct {
		Window time.Duration `mapstructure:"window"`
		Max    int           `mapstructure:"max"`
	} `mapstructure:"rate_limit"`
}

func (c Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// LoadConfig reads .env and config.yaml from the given directories (the working
// directory when none are given), then lets environment variables override them.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, filepath.Join(p, ".env"))
	}
	if err = godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.cors_origins", []string{"http://localhost:3000", "https://gemini.google.com"})
	v.SetDefault("gemini.model", "gemini-pro")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.max", 100)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT", "PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.cors_origins", "CORS_ORIGINS")
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.model", "GEMINI_MODEL")
	v.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("jaeger.otlp_endpoint", "JAEGER_OTLP_ENDPOINT")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("rate_limit.max", "RATE_LIMIT_MAX_REQUESTS")

	err = v.Unmarshal(&cfg)
	return
}
