package datasets

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

// LoadCSV reads a headered CSV file, taking the named column as the label and
// every other column as a numeric feature.
func LoadCSV(path, target string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidDataset, "failed to open CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidDataset, "failed to parse CSV file")
	}
	if len(records) < 2 {
		return nil, errors.New(errors.InvalidDataset, "CSV file needs a header and at least one data row")
	}

	header := records[0]
	targetIndex := -1
	for i, name := range header {
		if name == target {
			targetIndex = i
			break
		}
	}
	if targetIndex < 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidDataset, "target column not found in CSV header"),
			errors.Fields{"target": target})
	}
	if len(header) < 2 {
		return nil, errors.New(errors.InvalidDataset, "CSV file has no feature columns")
	}

	ds := &Dataset{
		FeatureNames: make([]string, 0, len(header)-1),
		Features:     make([][]float64, 0, len(records)-1),
		Labels:       make([]float64, 0, len(records)-1),
	}
	for i, name := range header {
		if i != targetIndex {
			ds.FeatureNames = append(ds.FeatureNames, name)
		}
	}

	for rowNum, record := range records[1:] {
		row := make([]float64, 0, len(header)-1)
		for i, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.WithFields(
					errors.Wrap(err, errors.InvalidDataset, "non-numeric value in CSV data"),
					errors.Fields{"row": rowNum + 1, "column": header[i]})
			}
			if i == targetIndex {
				ds.Labels = append(ds.Labels, value)
			} else {
				row = append(row, value)
			}
		}
		ds.Features = append(ds.Features, row)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
