package cortex

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRunMeans(t *testing.T) {
	h := &History{}
	h.NewRun()
	h.Add(NetCount, 10)
	h.Add(NetCount, 20)
	h.Add(SuccessRate, 1)

	h.NewRun()
	h.Add(NetCount, 40)
	h.Add(SuccessRate, 0)

	assert.Equal(t, 2, h.Runs())
	assert.Equal(t, 15.0, h.RunMean(0, NetCount))
	assert.Equal(t, 40.0, h.RunMean(1, NetCount))
	assert.Equal(t, 0.0, h.RunMean(1, LinkCount), "missing series read as zero")
}

func TestHistoryTableAndPrint(t *testing.T) {
	h := &History{}
	for run := 0; run < 3; run++ {
		h.NewRun()
		h.Add(SuccessRate, float64(run%2))
		h.Add(Epochs, float64(10*(run+1)))
		h.Add(NetCount, 50)
	}

	dt := h.Table()
	require.Equal(t, 3, dt.Rows)
	assert.Equal(t, 10.0, dt.CellFloat("Epochs", 0))
	assert.Equal(t, 30.0, dt.CellFloat("Epochs", 2))

	var buf bytes.Buffer
	h.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "3 runs")
	assert.Contains(t, out, "SuccessRate")
	assert.Contains(t, out, "Epochs")
}

func TestHistoryDumps(t *testing.T) {
	dir := t.TempDir()
	h := &History{}
	h.NewRun()
	h.Add(SuccessRate, 1)
	h.Add(Epochs, 42)

	csvPath := filepath.Join(dir, "history.csv")
	require.NoError(t, h.WriteCSV(csvPath))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Epochs")

	jsonPath := filepath.Join(dir, "history.json")
	require.NoError(t, h.WriteJSON(jsonPath))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []map[string][]float64
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, []float64{42}, decoded[0]["Epochs"])
}
