// Package storage archives spectrum runs on disk: one directory per run
// holding metadata and the per-bin strain realizations.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nsvane/gwpop/internal/strain"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Seed      uint64    `json:"seed"`
	Model     string    `json:"model"`
	Size      int       `json:"size"`
	Steps     int       `json:"steps"`
	NFreqs    int       `json:"nfreqs"`
	NReals    int       `json:"nreals"`
	PtaDurYr  float64   `json:"pta_dur_yr"`
}

// Save writes one run directory: metadata.json plus background.csv and
// foreground.csv with a row per frequency bin (observer-frame GW frequency
// first, then one column per realization). Returns the run ID.
func (s *Store) Save(meta RunMetadata, res *strain.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.NFreqs = len(res.FobsGW)
	if len(res.Back) > 0 {
		meta.NReals = len(res.Back[0])
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeSpectrum(filepath.Join(runDir, "background.csv"), res.FobsGW, res.Back); err != nil {
		return "", err
	}
	if err := writeSpectrum(filepath.Join(runDir, "foreground.csv"), res.FobsGW, res.Fore); err != nil {
		return "", err
	}
	return runID, nil
}

func writeSpectrum(path string, fobs []float64, hc [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if len(hc) == 0 {
		return nil
	}
	header := []string{"fobs_gw"}
	for r := range hc[0] {
		header = append(header, fmt.Sprintf("hc%d", r))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range fobs {
		row := []string{strconv.FormatFloat(fobs[i], 'e', 10, 64)}
		for _, h := range hc[i] {
			row = append(row, strconv.FormatFloat(h, 'e', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// List returns the metadata of every stored run. A missing base directory
// is an empty store, not an error.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadBackground reads a run's background spectrum back as frequencies and
// per-bin realizations.
func (s *Store) LoadBackground(runID string) (fobs []float64, hc [][]float64, err error) {
	return readSpectrum(filepath.Join(s.baseDir, runID, "background.csv"))
}

// LoadForeground is the foreground counterpart of LoadBackground.
func (s *Store) LoadForeground(runID string) (fobs []float64, hc [][]float64, err error) {
	return readSpectrum(filepath.Join(s.baseDir, runID, "foreground.csv"))
}

func readSpectrum(path string) ([]float64, [][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	fobs := make([]float64, 0, len(records)-1)
	hc := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		f, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad frequency %q: %w", record[0], err)
		}
		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad strain %q: %w", field, err)
			}
			row = append(row, v)
		}
		fobs = append(fobs, f)
		hc = append(hc, row)
	}
	return fobs, hc, nil
}
