package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// Feedback is one occupant comfort report together with the conditions at submission time.
type Feedback struct {
	UserID                 int             `json:"user_id"`
	PlaceID                int             `json:"place_id"`
	SensationsTemperature  int             `json:"sensations_temperature"`
	PreferencesTemperature int             `json:"preferences_temperature"`
	ClothingLevel          int             `json:"clothing_level"`
	IndoorTemp             float64         `json:"indoor_temp"`
	IndoorHumidity         float64         `json:"indoor_humidity"`
	OutdoorTemp            sql.NullFloat64 `json:"-"`
	OutdoorHumidity        sql.NullFloat64 `json:"-"`
	CreatedAt              time.Time       `json:"created_at"`
}

// Columns lists the feedback columns in table order.
func Columns() []string {
	return []string{
		"user_id",
		"place_id",
		"sensations_temperature",
		"preferences_temperature",
		"clothing_level",
		"indoor_temp",
		"indoor_humidity",
		"outdoor_temp",
		"outdoor_humidity",
		"created_at",
	}
}

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS feedback (
        user_id INTEGER,
        place_id INTEGER,
        sensations_temperature INTEGER,
        preferences_temperature INTEGER,
        clothing_level INTEGER,
        indoor_temp REAL,
        indoor_humidity REAL,
        outdoor_temp REAL,
        outdoor_humidity REAL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = database.Exec(query)
	return err
}

func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// AddFeedback stores one feedback record. A zero CreatedAt is set to now.
func AddFeedback(feedback Feedback) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO feedback (
            user_id, place_id, sensations_temperature, preferences_temperature,
            clothing_level, indoor_temp, indoor_humidity, outdoor_temp, outdoor_humidity, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		feedback.UserID,
		feedback.PlaceID,
		feedback.SensationsTemperature,
		feedback.PreferencesTemperature,
		feedback.ClothingLevel,
		feedback.IndoorTemp,
		feedback.IndoorHumidity,
		feedback.OutdoorTemp,
		feedback.OutdoorHumidity,
		feedback.CreatedAt,
	)
	return err
}

// ListFeedback returns all feedback in submission order.
func ListFeedback() ([]Feedback, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT user_id, place_id, sensations_temperature, preferences_temperature,
               clothing_level, indoor_temp, indoor_humidity, outdoor_temp, outdoor_humidity, created_at
        FROM feedback
        ORDER BY created_at, rowid
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feedback := make([]Feedback, 0)
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.UserID, &f.PlaceID, &f.SensationsTemperature, &f.PreferencesTemperature,
			&f.ClothingLevel, &f.IndoorTemp, &f.IndoorHumidity, &f.OutdoorTemp, &f.OutdoorHumidity,
			&f.CreatedAt); err != nil {
			return nil, err
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}
