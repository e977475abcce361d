package datasets

import (
	"context"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
)

// LoadParquet reads a Parquet file, taking the named column as the label and
// every other numeric column as a feature.
func LoadParquet(ctx context.Context, path, target string) (*Dataset, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidDataset, "failed to open Parquet file")
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidDataset, "failed to read Parquet metadata")
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidDataset, "failed to read Parquet schema")
	}
	if len(schema.FieldIndices(target)) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidDataset, "target column not found in Parquet schema"),
			errors.Fields{"target": target})
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidDataset, "failed to read Parquet table")
	}
	defer table.Release()

	rows := int(table.NumRows())
	ds := &Dataset{Labels: make([]float64, 0, rows)}
	columns := make([][]float64, 0, int(table.NumCols()))

	for i := 0; i < int(table.NumCols()); i++ {
		name := table.Schema().Field(i).Name
		values, err := columnValues(table.Column(i))
		if err != nil {
			return nil, errors.WithFields(err, errors.Fields{"column": name})
		}
		if name == target {
			ds.Labels = values
			continue
		}
		ds.FeatureNames = append(ds.FeatureNames, name)
		columns = append(columns, values)
	}
	if len(columns) == 0 {
		return nil, errors.New(errors.InvalidDataset, "Parquet file has no feature columns")
	}

	// Transpose column-major Arrow data into the row-major matrix the
	// pipelines consume.
	ds.Features = make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, len(columns))
		for c, col := range columns {
			row[c] = col[r]
		}
		ds.Features[r] = row
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// columnValues flattens one chunked Arrow column into float64 values,
// accepting the common numeric physical types.
func columnValues(col *arrow.Column) ([]float64, error) {
	values := make([]float64, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				return nil, errors.New(errors.InvalidDataset, "Parquet column contains nulls")
			}
			switch typed := chunk.(type) {
			case *array.Float64:
				values = append(values, typed.Value(i))
			case *array.Float32:
				values = append(values, float64(typed.Value(i)))
			case *array.Int64:
				values = append(values, float64(typed.Value(i)))
			case *array.Int32:
				values = append(values, float64(typed.Value(i)))
			case *array.Int16:
				values = append(values, float64(typed.Value(i)))
			case *array.Int8:
				values = append(values, float64(typed.Value(i)))
			default:
				return nil, errors.WithFields(
					errors.New(errors.InvalidDataset, "Parquet column has a non-numeric type"),
					errors.Fields{"type": chunk.DataType().Name()})
			}
		}
	}
	return values, nil
}
