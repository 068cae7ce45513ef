package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	GatewayURL      string        `mapstructure:"gateway_url"`
	Secret          string        `mapstructure:"secret"`
	KeepAlivePeriod time.Duration `mapstructure:"keepalive_period"`
	ICEServers      []string      `mapstructure:"ice_servers"`
	HallRoom        int64         `mapstructure:"hall_room"`
	HallDescription string        `mapstructure:"hall_description"`
	ControlRoom     int64         `mapstructure:"control_room"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("gateway_url", "ws://localhost:8188/janus")
	v.SetDefault("keepalive_period", "25s")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("hall_room", 1000000)
	v.SetDefault("hall_description", "Hall")
	v.SetDefault("control_room", 1234)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
