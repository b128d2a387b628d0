// Package config loads battleship settings with viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "battleship.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. BATTLESHIP_SERVER_SOCKET.
const EnvPrefix = "BATTLESHIP"

// ServerConfig holds the listeners of the match host.
type ServerConfig struct {
	Socket    string `json:"socket" mapstructure:"socket"`
	WebSocket string `json:"websocket" mapstructure:"websocket"`
}

// HistoryConfig selects where finished matches are kept.
type HistoryConfig struct {
	Driver string `json:"driver" mapstructure:"driver"`
	Path   string `json:"path" mapstructure:"path"`
}

// DBConfig holds postgres settings for the postgres history driver.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// Config is the typed view of the loaded settings.
type Config struct {
	LogLevel  string        `json:"logLevel" mapstructure:"logLevel"`
	LogFormat string        `json:"logFormat" mapstructure:"logFormat"`
	Server    ServerConfig  `json:"server" mapstructure:"server"`
	History   HistoryConfig `json:"history" mapstructure:"history"`
	DB        DBConfig      `json:"db" mapstructure:"db"`
}

// SetDefaults registers the default values on viper.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")

	viper.SetDefault("server.socket", "./battleship.sock")
	viper.SetDefault("server.websocket", "")

	viper.SetDefault("history.driver", "sqlite")
	viper.SetDefault("history.path", "./battleship-history.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "battleship")
}

// Load reads configuration from the JSON file in configDir, if any, on
// top of the defaults and environment overrides. A missing file is not
// an error.
func Load(configDir string) (Config, error) {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return Current(), nil
}

// Current returns the settings viper holds now.
func Current() Config {
	return Config{
		LogLevel:  viper.GetString("logLevel"),
		LogFormat: viper.GetString("logFormat"),
		Server: ServerConfig{
			Socket:    viper.GetString("server.socket"),
			WebSocket: viper.GetString("server.websocket"),
		},
		History: HistoryConfig{
			Driver: viper.GetString("history.driver"),
			Path:   viper.GetString("history.path"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}
