package catalog

import (
	"database/sql"
	"encoding/json"

	"github.com/voicecatalog/harmonizer/internal/model"
)

// JSON columns are encoded and decoded only here. Empty lists are stored as
// NULL so absent and empty read back the same way.

func encodeJSON[T any](items []T) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeJSON[T any](col sql.NullString) []T {
	if !col.Valid || col.String == "" {
		return nil
	}
	var out []T
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil
	}
	return out
}

func decodeStrings(col sql.NullString) []string {
	return decodeJSON[string](col)
}

func decodePreviews(col sql.NullString) []model.PreviewAudio {
	return decodeJSON[model.PreviewAudio](col)
}

func decodeLinks(col sql.NullString) []model.SolutionLink {
	return decodeJSON[model.SolutionLink](col)
}
