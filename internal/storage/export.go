package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/episim/internal/epidemic"
)

type ExportData struct {
	Run    RunMetadata       `json:"run"`
	Steps  int               `json:"steps"`
	Counts []epidemic.Counts `json:"counts"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, counts []epidemic.Counts) error {
	data := ExportData{
		Run:    *meta,
		Steps:  len(counts),
		Counts: counts,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes counts in the same layout as the stored counts file.
func ExportCSV(w io.Writer, counts []epidemic.Counts) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CountsHeader); err != nil {
		return err
	}
	for i, c := range counts {
		if err := cw.Write(countsRow(i, c)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
