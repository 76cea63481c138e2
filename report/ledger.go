package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Ledger is a set of already processed file names
type Ledger map[string]struct{}

// LoadLedger reads names from track-stats.csv of the output directory. Missing file means empty ledger
func LoadLedger(dir string) (Ledger, error) {
	ledger := make(Ledger)
	file, err := os.Open(filepath.Join(dir, StatsCSVFile))
	if os.IsNotExist(err) {
		return ledger, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "can't open ledger")
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "can't read ledger")
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}
		ledger[record[0]] = struct{}{}
	}
	return ledger, nil
}

// Contains reports whether file (by base name) was processed
func (ledger Ledger) Contains(path string) bool {
	_, ok := ledger[filepath.Base(path)]
	return ok
}
