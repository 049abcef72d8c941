// Package weather reads outdoor conditions from a National Weather Service observation station.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.weather.gov"
	DefaultStation  = "KCEU"
	DefaultCacheTTL = 5 * time.Minute
)

// Measurement is one observed quantity as reported by the API.
type Measurement struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

// Observation is the subset of a station observation used for feedback records.
type Observation struct {
	ID         string `json:"id"`
	Properties struct {
		Timestamp        time.Time   `json:"timestamp"`
		Temperature      Measurement `json:"temperature"`
		RelativeHumidity Measurement `json:"relativeHumidity"`
	} `json:"properties"`
}

// TemperatureF returns the observed temperature in degrees Fahrenheit.
func (o Observation) TemperatureF() (float64, error) {
	c := o.Properties.Temperature.Value
	if c == nil {
		return 0, errors.New("observation has no temperature")
	}
	return *c*9/5 + 32, nil
}

func (o Observation) RelativeHumidity() (float64, error) {
	h := o.Properties.RelativeHumidity.Value
	if h == nil {
		return 0, errors.New("observation has no relative humidity")
	}
	return *h, nil
}

type Config struct {
	BaseURL  string
	Station  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// Client fetches the latest observation, reusing it until CacheTTL elapses.
type Client struct {
	baseURL string
	station string
	http    *http.Client
	cache   *expirable.LRU[string, Observation]
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Station == "" {
		cfg.Station = DefaultStation
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		station: cfg.Station,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   expirable.NewLRU[string, Observation](16, nil, cfg.CacheTTL),
		logger:  logger,
	}
}

// Latest returns the most recent observation for the configured station.
func (c *Client) Latest(ctx context.Context) (Observation, error) {
	if obs, ok := c.cache.Get(c.station); ok {
		return obs, nil
	}

	url := fmt.Sprintf("%s/stations/%s/observations/latest", c.baseURL, c.station)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Observation{}, errors.Wrap(err, "build observation request")
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", "comfortcast")

	resp, err := c.http.Do(req)
	if err != nil {
		return Observation{}, errors.Wrapf(err, "fetch observation for %s", c.station)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Observation{}, errors.Errorf("fetch observation for %s: status %d", c.station, resp.StatusCode)
	}

	var obs Observation
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		return Observation{}, errors.Wrapf(err, "decode observation for %s", c.station)
	}
	c.cache.Add(c.station, obs)
	c.logger.Debug("observation refreshed",
		zap.String("station", c.station),
		zap.Time("observed_at", obs.Properties.Timestamp))
	return obs, nil
}

// Outdoor returns the current outdoor temperature (°F) and relative humidity (%).
func (c *Client) Outdoor(ctx context.Context) (temp, humidity float64, err error) {
	obs, err := c.Latest(ctx)
	if err != nil {
		return 0, 0, err
	}
	if temp, err = obs.TemperatureF(); err != nil {
		return 0, 0, err
	}
	if humidity, err = obs.RelativeHumidity(); err != nil {
		return 0, 0, err
	}
	return temp, humidity, nil
}
