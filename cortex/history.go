package cortex

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/emer/etable/agg"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"golang.org/x/exp/maps"
)

// History accumulates per-run records keyed by a statistic tag. Within
// a run each tag holds a series (one value per epoch for the population
// counts, a single value for the run totals); the summary reports
// per-run means with mean and SD across runs.
type History struct {
	runs []map[HStat][]float64
}

// NewRun opens a fresh run record.
func (h *History) NewRun() {
	h.runs = append(h.runs, make(map[HStat][]float64))
}

// Add appends a value to the named series of the current run.
func (h *History) Add(stat HStat, value float64) {
	if len(h.runs) == 0 {
		h.NewRun()
	}
	run := h.runs[len(h.runs)-1]
	run[stat] = append(run[stat], value)
}

// Runs returns the number of recorded runs.
func (h *History) Runs() int {
	return len(h.runs)
}

// RunMean returns the mean of a series within one run.
func (h *History) RunMean(run int, stat HStat) float64 {
	if run < 0 || run >= len(h.runs) {
		return 0.0
	}
	return Mean(h.runs[run][stat])
}

// Table converts the history into a table with one row per run and one
// column per statistic, holding the per-run means.
func (h *History) Table() *etable.Table {
	sch := etable.Schema{}
	for _, stat := range HStats {
		sch = append(sch, etable.Column{stat.String(), etensor.FLOAT64, nil, nil})
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, len(h.runs))
	for run := range h.runs {
		for _, stat := range HStats {
			dt.SetCellFloat(stat.String(), run, h.RunMean(run, stat))
		}
	}
	return dt
}

// Print writes the cross-run summary: the mean and standard deviation
// of every statistic's per-run mean.
func (h *History) Print(w io.Writer) {
	if len(h.runs) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return
	}
	dt := h.Table()
	ix := etable.NewIdxView(dt)
	desc := agg.DescAll(ix)
	meanRow := desc.RowsByString("Agg", "Mean", etable.Equals, etable.UseCase)[0]
	stdRow := desc.RowsByString("Agg", "Std", etable.Equals, etable.UseCase)[0]

	fmt.Fprintf(w, "==============[ History: %d runs ]==============\n", len(h.runs))
	for _, stat := range HStats {
		name := stat.String()
		fmt.Fprintf(w, "%-12s mean: %10.4f  sd: %10.4f\n",
			name, desc.CellFloat(name, meanRow), desc.CellFloat(name, stdRow))
	}
}

// WriteCSV dumps the per-run table to a file as tab-separated values
// with a header row.
func (h *History) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create history file '%s': %w", path, err)
	}
	defer f.Close()
	if err := h.Table().WriteCSV(f, etable.Tab, etable.Headers); err != nil {
		return fmt.Errorf("failed to write history to '%s': %w", path, err)
	}
	return nil
}

// WriteJSON dumps the raw per-run series as JSON. The schema is
// implementation-defined; stability is not a contract.
func (h *History) WriteJSON(path string) error {
	out := make([]map[string][]float64, 0, len(h.runs))
	for _, run := range h.runs {
		rec := make(map[string][]float64, len(run))
		stats := maps.Keys(run)
		sort.Slice(stats, func(i, j int) bool { return stats[i] < stats[j] })
		for _, stat := range stats {
			rec[stat.String()] = run[stat]
		}
		out = append(out, rec)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history to '%s': %w", path, err)
	}
	return nil
}
