package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/voicecatalog/harmonizer/internal/model"
)

// SQLiteStore is the catalog backed by a modernc.org/sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite catalog at path and
// configures WAL mode.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// OpenExisting opens a catalog that a previous rebuild produced. A missing
// file or a file without the voices table is an error.
func OpenExisting(ctx context.Context, path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(err, "sqlite: catalog %s not found", path)
	}
	st, err := NewSQLite(path)
	if err != nil {
		return nil, err
	}
	var n int
	err = st.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'voices'`,
	).Scan(&n)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: inspect schema")
	}
	if n == 0 {
		st.Close() //nolint:errcheck
		return nil, eris.Errorf("sqlite: catalog %s has no voices table", path)
	}
	return st, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const dropSchema = `
DROP TABLE IF EXISTS voices_fts;
DROP TABLE IF EXISTS solution_voice_matches;
DROP TABLE IF EXISTS solution_provider_support;
DROP TABLE IF EXISTS solution_runtime_support;
DROP TABLE IF EXISTS solutions;
DROP TABLE IF EXISTS voice_use_cases;
DROP TABLE IF EXISTS use_cases;
DROP TABLE IF EXISTS voices;
`

const supportLevelCheck = `CHECK (support_level IN ('native','compatible','possible','unsupported','unknown'))`

const createSchema = `
CREATE TABLE voices (
	voice_key            TEXT PRIMARY KEY,
	id                   TEXT NOT NULL,
	name                 TEXT NOT NULL,
	language_codes       TEXT NOT NULL,
	gender               TEXT,
	engine               TEXT NOT NULL,
	platform             TEXT NOT NULL,
	collected_at         TEXT NOT NULL,
	language_name        TEXT,
	language_display     TEXT,
	country_code         TEXT,
	script               TEXT,
	latitude             REAL,
	longitude            REAL,
	geo_country          TEXT,
	geo_region           TEXT,
	written_script       TEXT,
	preview_audio        TEXT,
	preview_audios       TEXT,
	quality              TEXT,
	styles               TEXT,
	software             TEXT,
	age                  TEXT,
	model_type           TEXT,
	developer            TEXT,
	num_speakers         INTEGER,
	sample_rate          INTEGER,
	runtime              TEXT,
	provider             TEXT,
	engine_family        TEXT,
	distribution_channel TEXT,
	capability_tags      TEXT,
	taxonomy_source      TEXT,
	taxonomy_confidence  TEXT,
	source_type          TEXT,
	source_name          TEXT
);

CREATE VIRTUAL TABLE voices_fts
USING fts5(name, language_name, language_display, engine, platform, software, quality);

CREATE INDEX idx_voices_platform ON voices(platform);
CREATE INDEX idx_voices_engine ON voices(engine);
CREATE INDEX idx_voices_language_display ON voices(language_display);
CREATE INDEX idx_voices_source_type ON voices(source_type);
CREATE INDEX idx_voices_runtime ON voices(runtime);
CREATE INDEX idx_voices_provider ON voices(provider);
CREATE INDEX idx_voices_engine_family ON voices(engine_family);
CREATE INDEX idx_voices_distribution_channel ON voices(distribution_channel);

CREATE TABLE use_cases (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT
);

CREATE TABLE voice_use_cases (
	voice_key     TEXT NOT NULL,
	use_case_id   TEXT NOT NULL,
	support_level TEXT NOT NULL ` + supportLevelCheck + `,
	notes         TEXT,
	source        TEXT,
	PRIMARY KEY (voice_key, use_case_id)
);

CREATE TABLE solutions (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	category  TEXT NOT NULL CHECK (category IN ('screenreader','aac')),
	vendor    TEXT,
	platforms TEXT,
	links     TEXT,
	source    TEXT
);

CREATE TABLE solution_runtime_support (
	solution_id   TEXT NOT NULL,
	runtime       TEXT NOT NULL,
	runtime_class TEXT NOT NULL CHECK (runtime_class IN ('direct','broker')),
	support_level TEXT NOT NULL ` + supportLevelCheck + `,
	mode          TEXT,
	notes         TEXT,
	PRIMARY KEY (solution_id, runtime)
);

CREATE TABLE solution_provider_support (
	solution_id   TEXT NOT NULL,
	provider      TEXT NOT NULL,
	support_level TEXT NOT NULL ` + supportLevelCheck + `,
	mode          TEXT,
	notes         TEXT,
	PRIMARY KEY (solution_id, provider)
);

CREATE TABLE solution_voice_matches (
	solution_id   TEXT NOT NULL,
	voice_key     TEXT NOT NULL,
	support_level TEXT NOT NULL ` + supportLevelCheck + `,
	reason        TEXT NOT NULL,
	category      TEXT NOT NULL,
	PRIMARY KEY (solution_id, voice_key)
);
`

const voiceColumns = `voice_key, id, name, language_codes, gender, engine, platform, collected_at,
	language_name, language_display, country_code, script,
	latitude, longitude, geo_country, geo_region, written_script,
	preview_audio, preview_audios, quality, styles, software, age,
	model_type, developer, num_speakers, sample_rate,
	runtime, provider, engine_family, distribution_channel, capability_tags,
	taxonomy_source, taxonomy_confidence, source_type, source_name`

// Rebuild drops and recreates every catalog table and fills them from
// voices and solutions, all inside one transaction. Solution matches are
// recomputed from scratch.
func (s *SQLiteStore) Rebuild(ctx context.Context, voices []model.Voice, solutions []model.Solution) (*RebuildResult, error) {
	log := zap.L().With(zap.String("component", "catalog"))
	res := &RebuildResult{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin rebuild")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, dropSchema); err != nil {
		return nil, eris.Wrap(err, "sqlite: drop tables")
	}
	if _, err := tx.ExecContext(ctx, createSchema); err != nil {
		return nil, eris.Wrap(err, "sqlite: create tables")
	}

	if res.Voices, err = insertVoices(ctx, tx, voices); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO voices_fts(rowid, name, language_name, language_display, engine, platform, software, quality)
		SELECT rowid, name, language_name, language_display, engine, platform, software, quality FROM voices`,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: fill fts")
	}

	for _, uc := range UseCases {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO use_cases (id, name, description) VALUES (?, ?, ?)`,
			uc.ID, uc.Name, uc.Description,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: seed use case %s", uc.ID)
		}
	}
	if res.VoiceUseCases, err = insertVoiceUseCases(ctx, tx, voices); err != nil {
		return nil, err
	}
	if err := insertSolutions(ctx, tx, solutions, res); err != nil {
		return nil, err
	}

	for _, m := range MatchSolutions(voices, solutions) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO solution_voice_matches
			 (solution_id, voice_key, support_level, reason, category) VALUES (?, ?, ?, ?, ?)`,
			m.SolutionID, m.VoiceKey, string(m.SupportLevel), m.Reason, m.Category,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert match %s/%s", m.SolutionID, m.VoiceKey)
		}
		res.Matches++
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit rebuild")
	}
	log.Info("catalog rebuilt",
		zap.Int("voices", res.Voices),
		zap.Int("voice_use_cases", res.VoiceUseCases),
		zap.Int("solutions", res.Solutions),
		zap.Int("solution_matches", res.Matches),
	)
	return res, nil
}

func insertVoices(ctx context.Context, tx *sql.Tx, voices []model.Voice) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO voices (`+voiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare voice insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, v := range voices {
		langs := v.LanguageCodes
		if langs == nil {
			langs = []string{}
		}
		langsJSON, err := json.Marshal(langs)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: encode language_codes for %s", v.Key)
		}
		previews, err := encodeJSON(v.PreviewAudios)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: encode preview_audios for %s", v.Key)
		}
		styles, err := encodeJSON(v.Styles)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: encode styles for %s", v.Key)
		}
		tags, err := encodeJSON(v.CapabilityTags)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: encode capability_tags for %s", v.Key)
		}

		_, err = stmt.ExecContext(ctx,
			v.Key, v.ID, v.Name, string(langsJSON), nullString(v.Gender), v.Engine, v.Platform, v.CollectedAt,
			v.LanguageName, v.LanguageDisplay, v.CountryCode, v.Script,
			v.Latitude, v.Longitude, v.Country, v.Region, v.WrittenScript,
			nullString(v.PreviewAudio), previews, nullString(v.Quality), styles, nullString(v.Software), nullString(v.Age),
			nullString(v.ModelType), nullString(v.Developer), v.NumSpeakers, v.SampleRate,
			v.Runtime, v.Provider, v.EngineFamily, v.DistributionChannel, tags,
			v.Taxonomy.Source, v.Confidence, nullString(v.SourceType), nullString(v.SourceName),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert voice %s", v.Key)
		}
	}
	return len(voices), nil
}

func insertVoiceUseCases(ctx context.Context, tx *sql.Tx, voices []model.Voice) (int, error) {
	var n int
	for _, v := range voices {
		for _, uc := range v.UseCases {
			uc.UseCaseID = strings.ToLower(strings.TrimSpace(uc.UseCaseID))
			if !knownUseCase(uc.UseCaseID) {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO voice_use_cases (voice_key, use_case_id, support_level, notes, source)
				 VALUES (?, ?, ?, ?, ?)`,
				v.Key, uc.UseCaseID, string(model.ParseSupportLevel(string(uc.SupportLevel))),
				nullString(truncate(uc.Notes, 500)), nullString(truncate(uc.Source, 100)),
			)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert use case %s for %s", uc.UseCaseID, v.Key)
			}
			n++
		}
	}
	return n, nil
}

func insertSolutions(ctx context.Context, tx *sql.Tx, solutions []model.Solution, res *RebuildResult) error {
	for _, s := range solutions {
		platforms, err := encodeJSON(s.Platforms)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode platforms for %s", s.ID)
		}
		links, err := encodeJSON(s.Links)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode links for %s", s.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO solutions (id, name, category, vendor, platforms, links, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Category, nullString(s.Vendor), platforms, links, nullString(s.Source),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert solution %s", s.ID)
		}
		res.Solutions++

		for _, rs := range s.RuntimeSupport {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO solution_runtime_support
				 (solution_id, runtime, runtime_class, support_level, mode, notes) VALUES (?, ?, ?, ?, ?, ?)`,
				s.ID, rs.Runtime, rs.RuntimeClass, string(rs.SupportLevel), nullString(rs.Mode), nullString(rs.Notes),
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert runtime support %s/%s", s.ID, rs.Runtime)
			}
			res.RuntimeSupport++
		}
		for _, ps := range s.ProviderSupport {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO solution_provider_support
				 (solution_id, provider, support_level, mode, notes) VALUES (?, ?, ?, ?, ?)`,
				s.ID, ps.Provider, string(ps.SupportLevel), nullString(ps.Mode), nullString(ps.Notes),
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert provider support %s/%s", s.ID, ps.Provider)
			}
			res.ProviderSupport++
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
