package encoding

import (
	"bytes"
	"encoding/csv"

	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// CSVFormat кодирует значение в CSV.
//
// Последовательность mapping'ов пишется таблицей: заголовок из ключей
// первой записи, затем по строке на запись в порядке заголовка.
// Любое другое значение разворачивается в строки "путь,значение" без заголовка.
// Поля с запятыми, кавычками и переводами строк экранируются по RFC 4180.
type CSVFormat struct{}

// NewCSVFormat создает CSV формат
func NewCSVFormat() *CSVFormat {
	return &CSVFormat{}
}

func (f *CSVFormat) Name() valueobject.ExportFormat { return valueobject.CSV }

func (f *CSVFormat) Encode(value snapshot.Value) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	var err error
	if snapshot.IsRecordSequence(value) {
		err = writeTable(writer, value.Items())
	} else {
		err = writeFlattened(writer, value)
	}
	if err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTable(writer *csv.Writer, records []snapshot.Value) error {
	header := records[0].Keys()
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, record := range records {
		for i, key := range header {
			cell, ok := record.Get(key)
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = cell.Text()
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeFlattened(writer *csv.Writer, value snapshot.Value) error {
	rows, err := snapshot.Flatten(value)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := writer.Write([]string{row.Key, row.Value.Text()}); err != nil {
			return err
		}
	}
	return nil
}
