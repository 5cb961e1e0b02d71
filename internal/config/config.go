package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Shop       ShopConfig       `yaml:"shop"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`

	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

// DSN собирает строку подключения к postgres
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"` // в минутах
}

// TTL возвращает время жизни токена
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.TokenTTL) * time.Minute
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// ShopConfig настройки витрины: размер страницы и адрес страницы входа
type ShopConfig struct {
	PageSize int    `yaml:"page_size" env:"SHOP_PAGE_SIZE" env-default:"10"`
	LoginURL string `yaml:"login_url" env:"SHOP_LOGIN_URL" env-default:"/login"`
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
		panic(fmt.Sprintf("can't read config file %s: %v", configPath, err))
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", configPath, err))
	}

	return &cfg
}

// validate проверяет значения, которые cleanenv не может проверить тегами
func (c *Config) validate() error {
	switch {
	case c.Shop.PageSize <= 0:
		return fmt.Errorf("shop.page_size must be positive, got %d", c.Shop.PageSize)
	case !strings.HasPrefix(c.Shop.LoginURL, "/"):
		return fmt.Errorf("shop.login_url must be a local path, got %q", c.Shop.LoginURL)
	case c.JWT.TokenTTL <= 0:
		return fmt.Errorf("jwt.token_ttl must be positive, got %d", c.JWT.TokenTTL)
	case c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0:
		return errors.New("database connection limits must not be negative")
	}
	return nil
}
