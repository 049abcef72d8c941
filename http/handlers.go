package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"comfortcast/db"
	"comfortcast/ml"
)

// Predictor computes the comfort probability for one request.
type Predictor interface {
	PredictProbability(in ml.Input) (float64, error)
}

// OutdoorSource reports current outdoor temperature and relative humidity.
type OutdoorSource interface {
	Outdoor(ctx context.Context) (temp, humidity float64, err error)
}

// IndoorSource reports the room temperature and relative humidity for a place.
type IndoorSource interface {
	Indoor(ctx context.Context, placeID int) (temp, humidity float64, err error)
}

// IndoorRecorder accepts readings pushed by room sensors.
type IndoorRecorder interface {
	Record(placeID int, temp, humidity float64)
}

type Dependencies struct {
	Predictor Predictor
	Outdoor   OutdoorSource
	Indoor    IndoorSource
	Logger    *zap.Logger
}

type handlers struct {
	Dependencies
}

func RegisterHandlers(mux *http.ServeMux, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{Dependencies: deps}
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/suggest", h.handleSuggest)
	mux.HandleFunc("POST /api/feedback", h.handleFeedback)
	mux.HandleFunc("GET /api/takeout.csv", h.handleTakeout)
	if recorder, ok := deps.Indoor.(IndoorRecorder); ok {
		mux.HandleFunc("PUT /api/rooms/{place_id}", h.handleRoomReading(recorder))
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type suggestRequest struct {
	ClothingLevel   *float64   `json:"clothing_level"`
	IndoorTemp      *float64   `json:"indoor_temp"`
	IndoorHumidity  *float64   `json:"indoor_humidity"`
	OutdoorTemp     *float64   `json:"outdoor_temp"`
	OutdoorHumidity *float64   `json:"outdoor_humidity"`
	Time            *float64   `json:"time"`
	ID              flexString `json:"id"`
}

type suggestResponse struct {
	ID          string  `json:"id"`
	Probability float64 `json:"probability"`
	TimeBucket  int     `json:"time_bucket"`
}

func (req suggestRequest) input() (ml.Input, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"clothing_level", req.ClothingLevel},
		{"indoor_temp", req.IndoorTemp},
		{"indoor_humidity", req.IndoorHumidity},
		{"outdoor_temp", req.OutdoorTemp},
		{"outdoor_humidity", req.OutdoorHumidity},
		{"time", req.Time},
	}
	for _, f := range fields {
		if f.value == nil {
			return ml.Input{}, errors.New(f.name + " is required")
		}
	}
	return ml.Input{
		ClothingLevel:   *req.ClothingLevel,
		IndoorTemp:      *req.IndoorTemp,
		IndoorHumidity:  *req.IndoorHumidity,
		OutdoorTemp:     *req.OutdoorTemp,
		OutdoorHumidity: *req.OutdoorHumidity,
		Time:            *req.Time,
		ID:              string(req.ID),
	}, nil
}

func (h *handlers) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if h.Predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "predictor not configured")
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	probability, err := h.Predictor.PredictProbability(in)
	if err != nil {
		status := predictionStatus(err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("prediction failed", zap.String("id", in.ID), zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, suggestResponse{
		ID:          in.ID,
		Probability: probability,
		TimeBucket:  ml.TimeBucket(in.Time),
	})
}

func predictionStatus(err error) int {
	switch {
	case errors.Is(err, ml.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, ml.ErrSchemaMismatch), errors.Is(err, ml.ErrIncompatibleArtifact):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type feedbackRequest struct {
	PlaceID        flexInt  `json:"place_id"`
	UserID         flexInt  `json:"user_id"`
	Perception     flexInt  `json:"perception"`
	Preference     flexInt  `json:"preference"`
	ClothingLevel  flexInt  `json:"clothing_level"`
	// Used only when no room reading is known for the place.
	IndoorTemp     *float64 `json:"indoor_temp"`
	IndoorHumidity *float64 `json:"indoor_humidity"`
}

func (req feedbackRequest) validate() error {
	scales := []struct {
		name  string
		value flexInt
	}{
		{"perception", req.Perception},
		{"preference", req.Preference},
		{"clothing_level", req.ClothingLevel},
	}
	for _, s := range scales {
		if s.value < 1 || s.value > 5 {
			return errors.New(s.name + " must be on a five-point scale (1-5)")
		}
	}
	return nil
}

func (h *handlers) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	indoorTemp, indoorHumidity, err := h.indoor(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	feedback := db.Feedback{
		UserID:                 int(req.UserID),
		PlaceID:                int(req.PlaceID),
		SensationsTemperature:  int(req.Perception),
		PreferencesTemperature: int(req.Preference),
		ClothingLevel:          int(req.ClothingLevel),
		IndoorTemp:             indoorTemp,
		IndoorHumidity:         indoorHumidity,
		CreatedAt:              time.Now().UTC(),
	}
	if h.Outdoor != nil {
		temp, humidity, err := h.Outdoor.Outdoor(r.Context())
		if err != nil {
			h.Logger.Warn("outdoor conditions unavailable, storing feedback without them", zap.Error(err))
		} else {
			feedback.OutdoorTemp = sql.NullFloat64{Float64: temp, Valid: true}
			feedback.OutdoorHumidity = sql.NullFloat64{Float64: humidity, Valid: true}
		}
	}

	if err := db.AddFeedback(feedback); err != nil {
		h.Logger.Error("store feedback", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// indoor looks up the room conditions for the feedback's place on the server.
// Client-sent values are the fallback for places without a reading.
func (h *handlers) indoor(ctx context.Context, req feedbackRequest) (float64, float64, error) {
	placeID := int(req.PlaceID)
	if h.Indoor != nil {
		temp, humidity, err := h.Indoor.Indoor(ctx, placeID)
		if err == nil {
			return temp, humidity, nil
		}
		h.Logger.Warn("room conditions unavailable", zap.Int("place_id", placeID), zap.Error(err))
	}
	if req.IndoorTemp != nil && req.IndoorHumidity != nil {
		return *req.IndoorTemp, *req.IndoorHumidity, nil
	}
	return 0, 0, fmt.Errorf("indoor conditions unavailable for place %d", placeID)
}

type roomReadingRequest struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

func (h *handlers) handleRoomReading(recorder IndoorRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		placeID, err := strconv.Atoi(r.PathValue("place_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "place_id must be an integer")
			return
		}

		var req roomReadingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		if req.Temp == nil || req.Humidity == nil {
			writeError(w, http.StatusBadRequest, "temp and humidity are required")
			return
		}
		if math.IsNaN(*req.Temp) || math.IsInf(*req.Temp, 0) ||
			math.IsNaN(*req.Humidity) || *req.Humidity < 0 || *req.Humidity > 100 {
			writeError(w, http.StatusBadRequest, "reading out of range")
			return
		}

		recorder.Record(placeID, *req.Temp, *req.Humidity)
		h.Logger.Debug("room reading recorded",
			zap.Int("place_id", placeID),
			zap.Float64("temp", *req.Temp),
			zap.Float64("humidity", *req.Humidity))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *handlers) handleTakeout(w http.ResponseWriter, r *http.Request) {
	feedback, err := db.ListFeedback()
	if err != nil {
		h.Logger.Error("list feedback", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read feedback")
		return
	}
	if len(feedback) == 0 {
		writeError(w, http.StatusNotFound, "no feedback found")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="takeout.csv"`)
	out := csv.NewWriter(w)
	out.Write(db.Columns())
	for _, f := range feedback {
		out.Write([]string{
			strconv.Itoa(f.UserID),
			strconv.Itoa(f.PlaceID),
			strconv.Itoa(f.SensationsTemperature),
			strconv.Itoa(f.PreferencesTemperature),
			strconv.Itoa(f.ClothingLevel),
			formatFloat(f.IndoorTemp),
			formatFloat(f.IndoorHumidity),
			formatNullFloat(f.OutdoorTemp),
			formatNullFloat(f.OutdoorHumidity),
			f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	out.Flush()
	if err := out.Error(); err != nil {
		h.Logger.Error("write takeout", zap.Error(err))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
