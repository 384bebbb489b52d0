package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/san-kum/aerosim/internal/params"
)

type Kind string

const (
	KindSpecies  Kind = "species"
	KindMode     Kind = "mode"
	KindDist     Kind = "dist"
	KindGas      Kind = "gas"
	KindScenario Kind = "scenario"
)

var ErrNotFound = errors.New("storage: descriptor not found")

// Record is a validated descriptor as stored in a catalog. Params holds the
// normalized configuration as JSON.
type Record struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Name      string          `json:"name"`
	Source    string          `json:"source,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	NumConc   float64         `json:"num_conc,omitempty"`
	Params    json.RawMessage `json:"params"`
}

// Value decodes Params.
func (r *Record) Value() (*params.Value, error) {
	return params.Decode(r.Params)
}

// Bins is a number size distribution on a radius grid.
type Bins struct {
	Radius  []float64
	NumConc []float64
}

type Catalog interface {
	Save(rec Record, bins *Bins) (string, error)
	List() ([]Record, error)
	Load(id string) (*Record, error)
	LoadBins(id string) (*Bins, error)
	Close() error
}

// NewRecord fills in a record for v.
func NewRecord(kind Kind, name, source string, v *params.Value) (Record, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kind:      kind,
		Name:      name,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Params:    data,
	}, nil
}

var idSeq atomic.Uint64

func newID(rec Record) string {
	return fmt.Sprintf("%s_%s_%d_%d", rec.Kind, rec.Name, rec.Timestamp.UnixNano(), idSeq.Add(1))
}

// Open returns the catalog named by backend ("fs" or "sqlite") rooted at dir.
func Open(backend, dir string) (Catalog, error) {
	switch backend {
	case "fs", "":
		st := New(dir)
		if err := st.Init(); err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dir, "aerosim.db"))
	}
	return nil, fmt.Errorf("storage: unknown backend %q", backend)
}

var (
	_ Catalog = (*Store)(nil)
	_ Catalog = (*SQLiteStore)(nil)
)
