package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps descriptors in a single table with the params and bins
// as JSON blobs.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

type binsJSON struct {
	Radius  []float64 `json:"radius"`
	NumConc []float64 `json:"num_conc"`
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "aerosim.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS descriptors (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		num_conc REAL NOT NULL,
		params BLOB NOT NULL,
		bins BLOB
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create descriptors table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Save(rec Record, bins *Bins) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = newID(rec)
	}
	var binData []byte
	if bins != nil {
		if len(bins.Radius) != len(bins.NumConc) {
			return "", fmt.Errorf("bins: %d radii but %d concentrations", len(bins.Radius), len(bins.NumConc))
		}
		var err error
		binData, err = json.Marshal(binsJSON{Radius: bins.Radius, NumConc: bins.NumConc})
		if err != nil {
			return "", err
		}
	}
	_, err := s.db.Exec(`INSERT INTO descriptors(id,kind,name,source,created_at,num_conc,params,bins)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, name=excluded.name, source=excluded.source,
		created_at=excluded.created_at, num_conc=excluded.num_conc, params=excluded.params, bins=excluded.bins`,
		rec.ID, string(rec.Kind), rec.Name, rec.Source, rec.Timestamp.UnixNano(), rec.NumConc, []byte(rec.Params), binData)
	if err != nil {
		return "", fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

func (s *SQLiteStore) List() ([]Record, error) {
	rows, err := s.db.Query(`SELECT id, kind, name, source, created_at, num_conc, params FROM descriptors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select descriptors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recs := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec     Record
		kind    string
		created int64
		payload []byte
	)
	if err := row.Scan(&rec.ID, &kind, &rec.Name, &rec.Source, &created, &rec.NumConc, &payload); err != nil {
		return nil, err
	}
	rec.Kind = Kind(kind)
	rec.Timestamp = time.Unix(0, created).UTC()
	rec.Params = json.RawMessage(payload)
	return &rec, nil
}

func (s *SQLiteStore) Load(id string) (*Record, error) {
	row := s.db.QueryRow(`SELECT id, kind, name, source, created_at, num_conc, params FROM descriptors WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) LoadBins(id string) (*Bins, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT bins FROM descriptors WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && payload == nil) {
		return nil, fmt.Errorf("%s bins: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	var b binsJSON
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("decode bins: %w", err)
	}
	return &Bins{Radius: b.Radius, NumConc: b.NumConc}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Path() string { return s.path }
