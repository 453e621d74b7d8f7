package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/krisalay/dataset-host/dataset"
)

// CSV reads a headed CSV file. Every column becomes a variable along dim (default "row").
func CSV(_ context.Context, args []any, kwargs map[string]any) (any, error) {
	path, err := stringArg(args, kwargs, 0, "path")
	if err != nil {
		return nil, err
	}
	dim, err := optionalString(kwargs, "dim", "row")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("files.csv: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("files.csv: %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("files.csv: %s: no header", path)
	}

	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = parseCell(cell)
		}
		rows = append(rows, row)
	}
	return dataset.FromColumns(dim, records[0], rows)
}

/*
JSONFile reads a dataset document from path. select is an optional gjson path
picking the document out of a larger file.
*/
func JSONFile(_ context.Context, args []any, kwargs map[string]any) (any, error) {
	path, err := stringArg(args, kwargs, 0, "path")
	if err != nil {
		return nil, err
	}
	sel, err := optionalString(kwargs, "select", "")
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("files.json: %w", err)
	}
	return decodeDocument("files.json", raw, sel)
}

func decodeDocument(source string, raw []byte, sel string) (*dataset.Dataset, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s: invalid JSON", source)
	}
	doc := gjson.ParseBytes(raw)
	if sel != "" {
		doc = doc.Get(sel)
		if !doc.Exists() {
			return nil, fmt.Errorf("%s: nothing at %q", source, sel)
		}
	}
	d, err := dataset.FromJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return d, nil
}
