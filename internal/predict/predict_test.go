package predict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nurbakyt/phone_app/internal/models"
)

func TestPredict(t *testing.T) {
	m := &Model{
		Mean:      []float64{0, 0, 0, 0, 0, 0},
		Scale:     []float64{1, 1, 1, 1, 1, 1},
		Coef:      []float64{100, 0.5, 1000, 10, 1, 50},
		Intercept: 5000,
	}

	price, err := m.Predict([]float64{4.5, 200, 8, 128, 5000, 16})
	require.NoError(t, err)
	require.InDelta(t, 5000+450+100+8000+1280+5000+800, price, 1e-9)
}

func TestPredictScalesFeatures(t *testing.T) {
	m := &Model{
		Mean:      []float64{4, 100, 4, 64, 4000, 8},
		Scale:     []float64{0.5, 50, 2, 32, 1000, 4},
		Coef:      []float64{1, 1, 1, 1, 1, 1},
		Intercept: 0,
	}

	price, err := m.Predict([]float64{4.5, 150, 6, 96, 5000, 12})
	require.NoError(t, err)
	require.InDelta(t, 6, price, 1e-9)
}

func TestPredictDimensionMismatch(t *testing.T) {
	m := &Model{Mean: []float64{0}, Scale: []float64{1}, Coef: []float64{1}}

	_, err := m.Predict([]float64{1, 2})
	require.Error(t, err)
}

func TestFeaturesOrder(t *testing.T) {
	p := &models.PhoneFeatures{Rating: 4.5, NumRatings: 200, RAM: 8, ROM: 128, Battery: 5000, FrontCam: 16}
	require.Equal(t, []float64{4.5, 200, 8, 128, 5000, 16}, Features(p))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	content := `{"mean":[0,0,0,0,0,0],"scale":[1,1,1,1,1,1],"coef":[1,2,3,4,5,6],"intercept":7}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7.0, m.Intercept)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	content := `{"mean":[0],"scale":[1,1],"coef":[1,2],"intercept":0}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
