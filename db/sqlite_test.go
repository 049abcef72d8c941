package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { Close() })
}

func TestNotInitialized(t *testing.T) {
	require.NoError(t, Close())
	assert.Error(t, AddFeedback(Feedback{}))
	_, err := ListFeedback()
	assert.Error(t, err)
}

func TestAddAndListFeedback(t *testing.T) {
	initTestDB(t)

	first := Feedback{
		UserID:                 7,
		PlaceID:                8916,
		SensationsTemperature:  4,
		PreferencesTemperature: 2,
		ClothingLevel:          3,
		IndoorTemp:             72.5,
		IndoorHumidity:         41,
		OutdoorTemp:            sql.NullFloat64{Float64: 68, Valid: true},
		OutdoorHumidity:        sql.NullFloat64{Float64: 65.5, Valid: true},
		CreatedAt:              time.Date(2021, 10, 15, 14, 0, 0, 0, time.UTC),
	}
	second := Feedback{
		UserID:                 9,
		PlaceID:                8921,
		SensationsTemperature:  1,
		PreferencesTemperature: 5,
		ClothingLevel:          1,
		IndoorTemp:             66,
		IndoorHumidity:         38,
		CreatedAt:              time.Date(2021, 10, 15, 15, 0, 0, 0, time.UTC),
	}
	require.NoError(t, AddFeedback(second))
	require.NoError(t, AddFeedback(first))

	all, err := ListFeedback()
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, 7, all[0].UserID)
	assert.Equal(t, 8916, all[0].PlaceID)
	assert.True(t, all[0].OutdoorTemp.Valid)
	assert.Equal(t, 68.0, all[0].OutdoorTemp.Float64)
	assert.True(t, all[0].CreatedAt.Equal(first.CreatedAt))

	assert.Equal(t, 9, all[1].UserID)
	assert.False(t, all[1].OutdoorTemp.Valid)
	assert.False(t, all[1].OutdoorHumidity.Valid)
}

func TestAddFeedbackDefaultsCreatedAt(t *testing.T) {
	initTestDB(t)
	before := time.Now().UTC().Add(-time.Second)

	require.NoError(t, AddFeedback(Feedback{UserID: 1, PlaceID: 2}))

	all, err := ListFeedback()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].CreatedAt.After(before))
}

func TestColumnsMatchTable(t *testing.T) {
	assert.Len(t, Columns(), 10)
	assert.Equal(t, "user_id", Columns()[0])
	assert.Equal(t, "created_at", Columns()[9])
}
