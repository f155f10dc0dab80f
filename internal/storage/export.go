package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Points [][][]float64 `json:"points"`
}

// ExportJSON writes a run's metadata and orbits as one JSON document. Orbits
// are nested as orbit, variable, step.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	orbits, err := s.LoadOrbits(runID)
	if err != nil {
		return err
	}

	data := ExportData{RunMetadata: *meta, Points: make([][][]float64, len(orbits))}
	for i, o := range orbits {
		data.Points[i] = o.Series
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies a run's orbits to w in the orbits.csv layout.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	orbits, err := s.LoadOrbits(runID)
	if err != nil {
		return err
	}
	var names []string
	if len(orbits) > 0 {
		names = orbits[0].Names
	}
	cw := csv.NewWriter(w)
	if err := WriteCSV(cw, names, orbits); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
