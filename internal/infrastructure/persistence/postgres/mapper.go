package postgres

import (
	"database/sql"
	"fmt"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
)

// scanLabeledCounts читает строки вида (label, count)
func scanLabeledCounts(rows *sql.Rows) ([]repository.LabeledCount, error) {
	defer rows.Close()

	counts := make([]repository.LabeledCount, 0)
	for rows.Next() {
		var label sql.NullString
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts = append(counts, repository.LabeledCount{
			Label: nullString(label, "unknown"),
			Count: count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

func nullString(v sql.NullString, fallback string) string {
	if !v.Valid || v.String == "" {
		return fallback
	}
	return v.String
}

func nullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}
