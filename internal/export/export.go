// Package export writes saved descriptors in formats other tools can read.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/aerosim/internal/storage"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatSVG  Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatCSV, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format: %s (json, csv or svg)", s)
}

// Data is the JSON form of a descriptor and its bins.
type Data struct {
	ID      string          `json:"id"`
	Kind    storage.Kind    `json:"kind"`
	Name    string          `json:"name"`
	Source  string          `json:"source,omitempty"`
	NumConc float64         `json:"num_conc"`
	Params  json.RawMessage `json:"params"`
	Radius  []float64       `json:"radius,omitempty"`
	Bins    []float64       `json:"num_conc_per_bin,omitempty"`
}

func WriteJSON(w io.Writer, rec *storage.Record, bins *storage.Bins) error {
	data := Data{
		ID:      rec.ID,
		Kind:    rec.Kind,
		Name:    rec.Name,
		Source:  rec.Source,
		NumConc: rec.NumConc,
		Params:  rec.Params,
	}
	if bins != nil {
		data.Radius = bins.Radius
		data.Bins = bins.NumConc
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func WriteCSV(w io.Writer, bins *storage.Bins) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"radius", "num_conc"}); err != nil {
		return err
	}
	for i := range bins.Radius {
		row := []string{
			strconv.FormatFloat(bins.Radius[i], 'g', -1, 64),
			strconv.FormatFloat(bins.NumConc[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write exports rec in format f. CSV and SVG need bins.
func Write(w io.Writer, f Format, rec *storage.Record, bins *storage.Bins) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, rec, bins)
	case FormatCSV, FormatSVG:
		if bins == nil {
			return fmt.Errorf("%s: no bins saved: %w", rec.ID, storage.ErrNotFound)
		}
		if f == FormatCSV {
			return WriteCSV(w, bins)
		}
		svg := BinsToSVG(bins, 800, 400, "#00ff00")
		if svg == "" {
			return fmt.Errorf("%s: need at least two bins with positive radius", rec.ID)
		}
		_, err := io.WriteString(w, svg+"\n")
		return err
	}
	return fmt.Errorf("unknown export format: %s", f)
}
