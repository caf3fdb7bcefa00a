package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/episim/internal/epidemic"
)

const (
	countsFile   = "counts.csv"
	metadataFile = "metadata.json"
)

// CountsHeader is the first row of every counts file.
var CountsHeader = []string{"Step", "Susceptible", "Infected", "Recovered", "Resistant"}

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
	ID                 string             `json:"id"`
	Preset             string             `json:"preset,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
	Seed               uint64             `json:"seed"`
	Size               int                `json:"size"`
	Steps              int                `json:"steps"`
	StepsTaken         int                `json:"steps_taken"`
	ResistantFraction  float64            `json:"resistant_fraction"`
	InitialInfected    int                `json:"initial_infected"`
	Beta               float64            `json:"beta"`
	ResistantInfection float64            `json:"resistant_infection"`
	DailyRecovery      float64            `json:"daily_recovery"`
	MinInfectedSteps   int                `json:"min_infected_steps"`
	Metrics            map[string]float64 `json:"metrics"`
	Artifacts          []string           `json:"artifacts,omitempty"`
}

// NewMetadata fills the parameter fields from a run configuration.
func NewMetadata(cfg epidemic.RunConfig) RunMetadata {
	return RunMetadata{
		Seed:               cfg.Seed,
		Size:               cfg.Init.Size,
		Steps:              cfg.Steps,
		ResistantFraction:  cfg.Init.ResistantFraction,
		InitialInfected:    cfg.Init.InitialInfected,
		Beta:               cfg.Rules.Beta,
		ResistantInfection: cfg.Rules.ResistantInfection,
		DailyRecovery:      cfg.Rules.DailyRecovery,
		MinInfectedSteps:   cfg.Rules.MinInfectedSteps,
	}
}

// Create opens a new run directory and writes the counts header. The returned
// Run must be closed exactly once by the caller.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("sir_%s_%d", meta.Timestamp.Format("20060102-150405.000000"), meta.Seed)
	dir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, countsFile))
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CountsHeader); err != nil {
		f.Close()
		return nil, err
	}

	return &Run{dir: dir, meta: meta, file: f, w: w}, nil
}

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
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Dir is the directory holding the files of runID.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// LoadCounts reads the per-step counts of a run in step order.
func (s *Store) LoadCounts(runID string) ([]epidemic.Counts, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, countsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(CountsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []epidemic.Counts{}, nil
	}

	counts := make([]epidemic.Counts, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]int, len(record))
		for j, field := range record {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", countsFile, i+2, err)
			}
			vals[j] = v
		}
		if vals[0] != i {
			return nil, fmt.Errorf("%s line %d: step %d out of order", countsFile, i+2, vals[0])
		}
		counts = append(counts, epidemic.Counts{
			Susceptible: vals[1],
			Infected:    vals[2],
			Recovered:   vals[3],
			Resistant:   vals[4],
		})
	}

	return counts, nil
}

func countsRow(step int, c epidemic.Counts) []string {
	return []string{
		strconv.Itoa(step),
		strconv.Itoa(c.Susceptible),
		strconv.Itoa(c.Infected),
		strconv.Itoa(c.Recovered),
		strconv.Itoa(c.Resistant),
	}
}
