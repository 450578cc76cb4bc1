package config

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"` // local, dev, prod
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	Ledger     LedgerConfig     `yaml:"ledger"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Enabled     bool          `yaml:"enabled" env-default:"true"`
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	CORSOrigins []string      `yaml:"cors_origins"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"` // запросов в секунду с одного IP
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env-default:"postgres"` // postgres (lib/pq) или pgx
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
	SSLMode  string `yaml:"ssl_mode" env-default:"disable"`
}

// DSN собирает строку подключения, её понимают и lib/pq, и pgx
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"` // минуты
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// TelegramConfig настройка бота
type TelegramConfig struct {
	Token          string        `yaml:"-" env:"TELEGRAM_BOT_TOKEN"`
	LogChatID      int64         `yaml:"log_chat_id" env:"TRANSACTION_LOG_CHAT_ID"`
	PollTimeout    int           `yaml:"poll_timeout" env-default:"60"` // секунды
	HandlerTimeout time.Duration `yaml:"handler_timeout" env-default:"10s"`
	Debug          bool          `yaml:"debug"`
}

// RedisConfig - хранилище окон команд. Пустой адрес - окна в памяти процесса.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

// NATSConfig - шина событий леджера. Пустой URL - события не публикуются.
type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" env-default:"ledger"`
}

type LedgerConfig struct {
	ResetConfirmCode string        `yaml:"-" env:"RESET_CONFIRM_CODE"`
	SendCooldown     time.Duration `yaml:"send_cooldown" env-default:"5s"`
	AdminCooldown    time.Duration `yaml:"admin_cooldown" env-default:"10s"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	// .env нужен только локально, его отсутствие не ошибка
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
