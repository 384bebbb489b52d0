package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Store keeps one directory per descriptor holding descriptor.json and,
// when a size distribution was computed, bins.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Close() error { return nil }

func (s *Store) Save(rec Record, bins *Bins) (string, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = newID(rec)
	}
	dir := filepath.Join(s.baseDir, rec.ID)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, "descriptor.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", err
	}

	if bins == nil {
		return rec.ID, nil
	}
	if len(bins.Radius) != len(bins.NumConc) {
		return "", fmt.Errorf("bins: %d radii but %d concentrations", len(bins.Radius), len(bins.NumConc))
	}

	csvFile, err := os.Create(filepath.Join(dir, "bins.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"radius", "num_conc"}); err != nil {
		return "", err
	}
	for i := range bins.Radius {
		row := []string{
			strconv.FormatFloat(bins.Radius[i], 'g', -1, 64),
			strconv.FormatFloat(bins.NumConc[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// List returns every readable descriptor, oldest first.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, err
	}

	recs := make([]Record, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
	return recs, nil
}

func (s *Store) Load(id string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "descriptor.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) LoadBins(id string) (*Bins, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "bins.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s bins: %w", id, ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	bins := &Bins{}
	for i := 1; i < len(records); i++ {
		radius, err := strconv.ParseFloat(records[i][0], 64)
		if err != nil {
			return nil, fmt.Errorf("bins.csv line %d: %w", i+1, err)
		}
		conc, err := strconv.ParseFloat(records[i][1], 64)
		if err != nil {
			return nil, fmt.Errorf("bins.csv line %d: %w", i+1, err)
		}
		bins.Radius = append(bins.Radius, radius)
		bins.NumConc = append(bins.NumConc, conc)
	}
	return bins, nil
}
