package predict

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nurbakyt/phone_app/internal/models"
)

// Model is a pre-trained linear price estimator with its feature scaler.
// Feature order: rating, num_ratings, ram, rom, battery, front_cam.
type Model struct {
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("predict: cannot read model file: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("predict: cannot parse model file: %w", err)
	}
	if len(m.Mean) != len(m.Coef) || len(m.Scale) != len(m.Coef) {
		return nil, fmt.Errorf("predict: model dimensions mismatch")
	}
	return &m, nil
}

func Features(p *models.PhoneFeatures) []float64 {
	return []float64{
		p.Rating,
		float64(p.NumRatings),
		float64(p.RAM),
		float64(p.ROM),
		float64(p.Battery),
		float64(p.FrontCam),
	}
}

// Predict standard-scales the features and applies the linear model.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coef) {
		return 0, fmt.Errorf("predict: expected %d features, got %d", len(m.Coef), len(features))
	}
	price := m.Intercept
	for i, x := range features {
		scaled := x
		if m.Scale[i] != 0 {
			scaled = (x - m.Mean[i]) / m.Scale[i]
		}
		price += m.Coef[i] * scaled
	}
	return price, nil
}
