package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/san-kum/mapsim/internal/maps"
)

const (
	metadataFile = "metadata.json"
	orbitsFile   = "orbits.csv"
	frameFile    = "frame.png"
)

// ErrRunNotFound is returned when no run directory matches an id.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	log     *log.Logger
}

func New(baseDir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{baseDir: baseDir, log: logger}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID         string             `json:"id"`
	Map        string             `json:"map"`
	Kind       maps.Kind          `json:"kind"`
	Timestamp  time.Time          `json:"timestamp"`
	Modulus    float64            `json:"modulus"`
	Variables  []string           `json:"variables"`
	Constants  map[string]float64 `json:"constants"`
	Steps      int                `json:"steps"`
	Orbits     int                `json:"orbits"`
	Metrics    map[string]float64 `json:"metrics"`
	Definition *maps.Definition   `json:"definition,omitempty"`
}

// NewRunID names a run after its map plus a short random suffix.
func NewRunID(mapName string) string {
	id, _, _ := strings.Cut(uuid.NewString(), "-")
	return fmt.Sprintf("%s_%s", mapName, id)
}

// Save writes a run directory holding metadata.json and orbits.csv. The
// ID, timestamp and orbit shape fields of meta are filled in here.
func (s *Store) Save(meta RunMetadata, orbits []*maps.Orbit) (string, error) {
	meta.ID = NewRunID(meta.Map)
	meta.Timestamp = time.Now()
	meta.Orbits = len(orbits)
	if len(orbits) > 0 {
		meta.Steps = orbits[0].Len()
		meta.Variables = orbits[0].Names
	}

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeOrbits(filepath.Join(runDir, orbitsFile), meta.Variables, orbits); err != nil {
		return "", err
	}
	s.log.Info("saved run", "id", meta.ID, "orbits", meta.Orbits, "steps", meta.Steps)
	return meta.ID, nil
}

// FramePath is where an image run keeps its final frame.
func (s *Store) FramePath(runID string) string {
	return filepath.Join(s.Dir(runID), frameFile)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOrbits(path string, names []string, orbits []*maps.Orbit) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := WriteCSV(w, names, orbits); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteCSV writes one row per point: orbit index, step, then one column
// per variable.
func WriteCSV(w *csv.Writer, names []string, orbits []*maps.Orbit) error {
	header := append([]string{"orbit", "step"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for k, o := range orbits {
		for i := 0; i < o.Len(); i++ {
			row[0] = strconv.Itoa(k)
			row[1] = strconv.Itoa(i)
			for v, series := range o.Series {
				row[2+v] = strconv.FormatFloat(series[i], 'g', -1, 64)
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns every readable run, newest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.Debug("skipping run dir", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadOrbits reads orbits.csv back into orbits.
func (s *Store) LoadOrbits(runID string) ([]*maps.Orbit, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), orbitsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 1 || len(records[0]) < 2 {
		return nil, fmt.Errorf("run %s: orbits.csv has no header", runID)
	}
	names := records[0][2:]

	var orbits []*maps.Orbit
	for line, rec := range records[1:] {
		k, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
		}
		for k >= len(orbits) {
			orbits = append(orbits, &maps.Orbit{Names: names, Series: make([][]float64, len(names))})
		}
		o := orbits[k]
		for v := range names {
			val, err := strconv.ParseFloat(rec[2+v], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
			}
			o.Series[v] = append(o.Series[v], val)
		}
	}
	return orbits, nil
}

func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	return os.RemoveAll(s.Dir(runID))
}
