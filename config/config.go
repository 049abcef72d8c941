// Package config loads comfortcast settings from YAML.
package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"comfortcast/logging"
	"comfortcast/ml"
	"comfortcast/rooms"
)

const DefaultPath = "config.yaml"

type Config struct {
	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Weather struct {
		BaseURL  string        `yaml:"base_url"`
		Station  string        `yaml:"station"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"weather"`
	Rooms struct {
		MaxAge time.Duration   `yaml:"max_age"`
		Static []rooms.Reading `yaml:"static"`
	} `yaml:"rooms"`
	Log logging.Config `yaml:"log"`
}

// Default returns the settings used when no config file is present.
func Default() *Config {
	c := &Config{}
	c.Models.Dir = ml.DefaultModelsDir
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Database.Path = "comfortcast.db"
	c.Weather.BaseURL = "https://api.weather.gov"
	c.Weather.Station = "KCEU"
	c.Weather.CacheTTL = 5 * time.Minute
	c.Weather.Timeout = 10 * time.Second
	c.Rooms.MaxAge = rooms.DefaultMaxAge
	c.Log.Level = "info"
	return c
}

// Load reads path over the defaults. A missing file is an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	config := Default()
	if path == "" {
		path = DefaultPath
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return config, nil
		}
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Models.Dir == "" {
		return errors.New("models.dir is required")
	}
	if c.Http.Port < 0 || c.Http.Port > 65535 {
		return errors.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Weather.CacheTTL < 0 {
		return errors.New("weather.cache_ttl must not be negative")
	}
	if c.Rooms.MaxAge <= 0 {
		return errors.New("rooms.max_age must be positive")
	}
	return nil
}
