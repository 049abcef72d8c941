// Package rooms tracks indoor temperature and humidity per place.
package rooms

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
)

// DefaultMaxAge matches how far back the sensor boxes are trusted.
const DefaultMaxAge = time.Hour

const maxPlaces = 1024

var ErrUnknownPlace = errors.New("no indoor reading for place")

// Reading is one indoor observation for a place. Temp is in °F, Humidity in percent.
type Reading struct {
	PlaceID   int       `json:"place_id" yaml:"place_id"`
	Temp      float64   `json:"temp" yaml:"temp"`
	Humidity  float64   `json:"humidity" yaml:"humidity"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Store answers indoor lookups from readings pushed by sensors, falling back
// to fixed readings for places without a live sensor.
type Store struct {
	live   *expirable.LRU[int, Reading]
	static map[int]Reading
	now    func() time.Time
}

// NewStore keeps pushed readings for maxAge. The static readings never expire.
func NewStore(maxAge time.Duration, static ...Reading) *Store {
	s := &Store{
		live:   expirable.NewLRU[int, Reading](maxPlaces, nil, maxAge),
		static: make(map[int]Reading, len(static)),
		now:    time.Now,
	}
	for _, r := range static {
		s.static[r.PlaceID] = r
	}
	return s
}

// Record stores the latest sensor reading for a place.
func (s *Store) Record(placeID int, temp, humidity float64) {
	s.live.Add(placeID, Reading{
		PlaceID:   placeID,
		Temp:      temp,
		Humidity:  humidity,
		UpdatedAt: s.now().UTC(),
	})
}

// Latest returns the freshest known reading for a place.
func (s *Store) Latest(placeID int) (Reading, bool) {
	if r, ok := s.live.Get(placeID); ok {
		return r, true
	}
	r, ok := s.static[placeID]
	return r, ok
}

// Indoor reports the room temperature and humidity for a place.
func (s *Store) Indoor(_ context.Context, placeID int) (temp, humidity float64, err error) {
	r, ok := s.Latest(placeID)
	if !ok {
		return 0, 0, errors.Wrapf(ErrUnknownPlace, "place %d", placeID)
	}
	return r.Temp, r.Humidity, nil
}
