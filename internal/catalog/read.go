package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/voicecatalog/harmonizer/internal/model"
)

type scannable interface {
	Scan(dest ...any) error
}

// ListVoices returns every voice in insertion order with its use cases.
func (s *SQLiteStore) ListVoices(ctx context.Context) ([]model.Voice, error) {
	voices, err := s.queryVoices(ctx, `SELECT `+voiceColumns+` FROM voices ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	useCases, err := s.ListVoiceUseCases(ctx, "")
	if err != nil {
		return nil, err
	}
	byKey := make(map[string][]model.UseCaseSupport)
	for _, uc := range useCases {
		byKey[uc.VoiceKey] = append(byKey[uc.VoiceKey], uc)
	}
	for i := range voices {
		if rows, ok := byKey[voices[i].Key]; ok {
			voices[i].UseCases = rows
		}
	}
	return voices, nil
}

// GetVoice returns one voice by key, or ErrNotFound.
func (s *SQLiteStore) GetVoice(ctx context.Context, key string) (*model.Voice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+voiceColumns+` FROM voices WHERE voice_key = ?`, key)
	v, err := scanVoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get voice %s", key)
	}
	useCases, err := s.ListVoiceUseCases(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(useCases) > 0 {
		v.UseCases = useCases
	}
	return v, nil
}

// Search runs a full text query over name, language, engine, platform,
// software and quality, best matches first.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]model.Voice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.New("sqlite: empty search query")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.queryVoices(ctx, `SELECT `+prefixColumns("v.", voiceColumns)+`
		FROM voices_fts JOIN voices v ON v.rowid = voices_fts.rowid
		WHERE voices_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
}

// ListVoiceUseCases returns use case rows for one voice, or for every voice
// when key is empty.
func (s *SQLiteStore) ListVoiceUseCases(ctx context.Context, key string) ([]model.UseCaseSupport, error) {
	query := `SELECT voice_key, use_case_id, support_level, notes, source FROM voice_use_cases`
	var args []any
	if key != "" {
		query += ` WHERE voice_key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY voice_key, use_case_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list voice use cases")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.UseCaseSupport
	for rows.Next() {
		var uc model.UseCaseSupport
		var level string
		var notes, source sql.NullString
		if err := rows.Scan(&uc.VoiceKey, &uc.UseCaseID, &level, &notes, &source); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan voice use case")
		}
		uc.SupportLevel = model.SupportLevel(level)
		uc.Notes = notes.String
		uc.Source = source.String
		out = append(out, uc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list voice use cases iterate")
}

// ListSolutions returns solutions ordered by id, without support rows.
func (s *SQLiteStore) ListSolutions(ctx context.Context) ([]model.Solution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, vendor, platforms, links, source FROM solutions ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list solutions")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Solution
	for rows.Next() {
		var sol model.Solution
		var vendor, platforms, links, source sql.NullString
		if err := rows.Scan(&sol.ID, &sol.Name, &sol.Category, &vendor, &platforms, &links, &source); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan solution")
		}
		sol.Vendor = vendor.String
		sol.Source = source.String
		sol.Platforms = decodeStrings(platforms)
		if sol.Platforms == nil {
			sol.Platforms = []string{}
		}
		sol.Links = decodeLinks(links)
		if sol.Links == nil {
			sol.Links = []model.SolutionLink{}
		}
		out = append(out, sol)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list solutions iterate")
}

// ListRuntimeSupport returns all runtime support rows.
func (s *SQLiteStore) ListRuntimeSupport(ctx context.Context) ([]model.RuntimeSupport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT solution_id, runtime, runtime_class, support_level, mode, notes
		 FROM solution_runtime_support ORDER BY solution_id, runtime`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runtime support")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RuntimeSupport
	for rows.Next() {
		var rs model.RuntimeSupport
		var level string
		var mode, notes sql.NullString
		if err := rows.Scan(&rs.SolutionID, &rs.Runtime, &rs.RuntimeClass, &level, &mode, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan runtime support")
		}
		rs.SupportLevel = model.SupportLevel(level)
		rs.Mode = mode.String
		rs.Notes = notes.String
		out = append(out, rs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runtime support iterate")
}

// ListProviderSupport returns all provider support rows.
func (s *SQLiteStore) ListProviderSupport(ctx context.Context) ([]model.ProviderSupport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT solution_id, provider, support_level, mode, notes
		 FROM solution_provider_support ORDER BY solution_id, provider`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list provider support")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ProviderSupport
	for rows.Next() {
		var ps model.ProviderSupport
		var level string
		var mode, notes sql.NullString
		if err := rows.Scan(&ps.SolutionID, &ps.Provider, &level, &mode, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider support")
		}
		ps.SupportLevel = model.SupportLevel(level)
		ps.Mode = mode.String
		ps.Notes = notes.String
		out = append(out, ps)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list provider support iterate")
}

// ListMatches returns all solution/voice matches.
func (s *SQLiteStore) ListMatches(ctx context.Context) ([]model.SolutionVoiceMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT solution_id, voice_key, support_level, reason, category
		 FROM solution_voice_matches ORDER BY solution_id, voice_key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.SolutionVoiceMatch
	for rows.Next() {
		var m model.SolutionVoiceMatch
		var level string
		if err := rows.Scan(&m.SolutionID, &m.VoiceKey, &level, &m.Reason, &m.Category); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		m.SupportLevel = model.SupportLevel(level)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

// Stats counts voices and their distinct platforms and engines.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT platform), COUNT(DISTINCT engine) FROM voices`,
	).Scan(&st.Voices, &st.Platforms, &st.Engines)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &st, nil
}

func (s *SQLiteStore) queryVoices(ctx context.Context, query string, args ...any) ([]model.Voice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query voices")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Voice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan voice")
		}
		out = append(out, *v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query voices iterate")
}

func scanVoice(row scannable) (*model.Voice, error) {
	var v model.Voice
	var (
		langs                                          string
		gender, previewAudio, previews, quality        sql.NullString
		styles, software, age, modelType, developer    sql.NullString
		runtime, provider, family, channel, tags       sql.NullString
		taxSource, taxConfidence, sourceType, sourceNm sql.NullString
		numSpeakers, sampleRate                        sql.NullInt64
	)
	err := row.Scan(
		&v.Key, &v.ID, &v.Name, &langs, &gender, &v.Engine, &v.Platform, &v.CollectedAt,
		&v.LanguageName, &v.LanguageDisplay, &v.CountryCode, &v.Script,
		&v.Latitude, &v.Longitude, &v.Country, &v.Region, &v.WrittenScript,
		&previewAudio, &previews, &quality, &styles, &software, &age,
		&modelType, &developer, &numSpeakers, &sampleRate,
		&runtime, &provider, &family, &channel, &tags,
		&taxSource, &taxConfidence, &sourceType, &sourceNm,
	)
	if err != nil {
		return nil, err
	}

	v.LanguageCodes = decodeStrings(sql.NullString{String: langs, Valid: true})
	if v.LanguageCodes == nil {
		v.LanguageCodes = []string{}
	}
	v.Gender = gender.String
	v.PreviewAudio = previewAudio.String
	v.PreviewAudios = decodePreviews(previews)
	v.Quality = quality.String
	v.Styles = decodeStrings(styles)
	v.Software = software.String
	v.Age = age.String
	v.ModelType = modelType.String
	v.Developer = developer.String
	v.NumSpeakers = optInt(numSpeakers)
	v.SampleRate = optInt(sampleRate)
	v.Runtime = runtime.String
	v.Provider = provider.String
	v.EngineFamily = family.String
	v.DistributionChannel = channel.String
	v.CapabilityTags = decodeStrings(tags)
	if v.CapabilityTags == nil {
		v.CapabilityTags = []string{}
	}
	v.Taxonomy.Source = taxSource.String
	v.Confidence = taxConfidence.String
	v.SourceType = sourceType.String
	v.SourceName = sourceNm.String
	v.UseCases = []model.UseCaseSupport{}
	return &v, nil
}

func optInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
