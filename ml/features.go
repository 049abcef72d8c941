package ml

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	MorningBucket   = 1
	AfternoonBucket = 2

	noon = 12.0
)

// Input carries the raw covariates of one prediction request.
type Input struct {
	ClothingLevel   float64 `json:"clothing_level" yaml:"clothing_level"`
	IndoorTemp      float64 `json:"indoor_temp" yaml:"indoor_temp"`
	IndoorHumidity  float64 `json:"indoor_humidity" yaml:"indoor_humidity"`
	OutdoorTemp     float64 `json:"outdoor_temp" yaml:"outdoor_temp"`
	OutdoorHumidity float64 `json:"outdoor_humidity" yaml:"outdoor_humidity"`
	Time            float64 `json:"time" yaml:"time"`
	ID              string  `json:"id" yaml:"id"`
}

// FeatureRow is the single labeled row presented to a model.
type FeatureRow struct {
	ClothingLevel   float64
	IndoorTemp      float64
	IndoorHumidity  float64
	OutdoorTemp     float64
	OutdoorHumidity float64
	TimeBucket      int
}

// TimeBucket splits a time of day at noon. Values outside a clock range are not rejected.
func TimeBucket(hour float64) int {
	if hour >= noon {
		return AfternoonBucket
	}
	return MorningBucket
}

// InClockRange reports whether hour looks like a time of day.
func InClockRange(hour float64) bool {
	return hour >= 0 && hour < 24
}

func NewFeatureRow(in Input) FeatureRow {
	return FeatureRow{
		ClothingLevel:   in.ClothingLevel,
		IndoorTemp:      in.IndoorTemp,
		IndoorHumidity:  in.IndoorHumidity,
		OutdoorTemp:     in.OutdoorTemp,
		OutdoorHumidity: in.OutdoorHumidity,
		TimeBucket:      TimeBucket(in.Time),
	}
}

func FeatureVector(row FeatureRow) []float64 {
	return []float64{
		row.ClothingLevel,
		row.IndoorTemp,
		row.IndoorHumidity,
		row.OutdoorTemp,
		row.OutdoorHumidity,
		float64(row.TimeBucket),
	}
}

// FeatureNames returns the column labels in the order models were trained with.
func FeatureNames() []string {
	return []string{
		"clothing_level",
		"indoor_temp",
		"indoor_humidity",
		"outdoor_temp",
		"outdoor_humidity",
		"New Time",
	}
}

var argNames = []string{
	"clothing_level",
	"indoor_temp",
	"indoor_humidity",
	"outdoor_temp",
	"outdoor_humidity",
	"time",
	"id",
}

// ArgNames lists the positional arguments accepted by ParseInput.
func ArgNames() []string {
	return append([]string(nil), argNames...)
}

// ParseInput converts positional string arguments into an Input.
func ParseInput(args []string) (Input, error) {
	if len(args) != len(argNames) {
		return Input{}, errors.Wrapf(ErrInvalidInput, "expected %d arguments (%s), got %d",
			len(argNames), strings.Join(argNames, " "), len(args))
	}

	values := make([]float64, len(argNames)-1)
	for i := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
		if err != nil {
			return Input{}, errors.Wrapf(ErrInvalidInput, "%s: %q is not a number", argNames[i], args[i])
		}
		values[i] = v
	}

	in := Input{
		ClothingLevel:   values[0],
		IndoorTemp:      values[1],
		IndoorHumidity:  values[2],
		OutdoorTemp:     values[3],
		OutdoorHumidity: values[4],
		Time:            values[5],
		ID:              strings.TrimSpace(args[6]),
	}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Validate checks that every covariate is finite and the ID is usable in a file name.
func (in Input) Validate() error {
	covariates := []float64{
		in.ClothingLevel,
		in.IndoorTemp,
		in.IndoorHumidity,
		in.OutdoorTemp,
		in.OutdoorHumidity,
		in.Time,
	}
	for i, v := range covariates {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidInput, "%s: %v is not a finite number", argNames[i], v)
		}
	}
	return validateID(in.ID)
}

func validateID(id string) error {
	if id == "" {
		return errors.Wrap(ErrInvalidInput, "id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return errors.Wrapf(ErrInvalidInput, "id %q must not contain path elements", id)
	}
	return nil
}
