package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/model"
)

func strp(s string) *string { return &s }

func seededStore(t *testing.T) *catalog.SQLiteStore {
	t.Helper()
	st, err := catalog.NewSQLite(filepath.Join(t.TempDir(), "voices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	voices := []model.Voice{
		{
			VoiceRecord: model.VoiceRecord{
				ID: "v1", Name: "Anna", LanguageCodes: []string{"en-US"},
				Gender: "Female", Engine: "eSpeak", Platform: "linux",
			},
			Key:          "espeak::linux::v1",
			LanguageInfo: model.LanguageInfo{LanguageName: strp("English"), CountryCode: strp("US")},
			Taxonomy: model.Taxonomy{
				Runtime: "eSpeak NG", Provider: "eSpeak", CapabilityTags: []string{},
				Source: "engine_default", Confidence: "high",
			},
		},
		{
			VoiceRecord: model.VoiceRecord{
				ID: "de-DE/Katja", Name: "Katja", LanguageCodes: []string{"de-DE"},
				Gender: "Female", Engine: "Microsoft", Platform: "online",
			},
			Key: "microsoft::online::de-DE/Katja",
			Taxonomy: model.Taxonomy{
				Runtime: "Azure Speech", Provider: "Microsoft", CapabilityTags: []string{},
				Source: "engine_default", Confidence: "high",
			},
		},
	}
	solutions := []model.Solution{{
		ID: "nvda", Name: "NVDA", Category: model.CategoryScreenreader,
		RuntimeSupport: []model.RuntimeSupport{
			{Runtime: "eSpeak NG", RuntimeClass: model.RuntimeClassDirect, SupportLevel: model.SupportNative},
		},
	}}
	_, err = st.Rebuild(context.Background(), voices, solutions)
	require.NoError(t, err)
	return st
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := get(t, NewRouter(seededStore(t), nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
}

func TestStats(t *testing.T) {
	rec, body := get(t, NewRouter(seededStore(t), nil), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["voices"])
	assert.EqualValues(t, 2, body["platforms"])
	assert.EqualValues(t, 2, body["engines"])
}

func TestListVoices(t *testing.T) {
	h := NewRouter(seededStore(t), nil)

	rec, body := get(t, h, "/voices")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, body = get(t, h, "/voices?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = get(t, h, "/voices?q=katja")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["count"])
	first := body["voices"].([]any)[0].(map[string]any)
	assert.Equal(t, "Katja", first["name"])

	rec, body = get(t, h, "/voices?q=nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["voices"])
}

func TestListVoices_BadInput(t *testing.T) {
	h := NewRouter(seededStore(t), nil)

	rec, body := get(t, h, "/voices?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "limit")

	rec, _ = get(t, h, "/voices?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = get(t, h, `/voices?q=%22unterminated`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid search query", body["error"])
}

func TestGetVoice(t *testing.T) {
	h := NewRouter(seededStore(t), nil)

	rec, body := get(t, h, "/voices/espeak::linux::v1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anna", body["name"])
	assert.Equal(t, "espeak::linux::v1", body["voice_key"])

	rec, body = get(t, h, "/voices/microsoft::online::de-DE/Katja")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Katja", body["name"])

	rec, body = get(t, h, "/voices/espeak::linux::missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "voice not found", body["error"])
}

func TestListSolutions(t *testing.T) {
	rec, body := get(t, NewRouter(seededStore(t), nil), "/solutions")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["solutions"], 1)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	assert.Equal(t, "espeak::linux::v1", matches[0].(map[string]any)["voice_key"])
}

func TestSiteJSON(t *testing.T) {
	rec, body := get(t, NewRouter(seededStore(t), nil), "/site.json")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["voices"])
	assert.Len(t, body["voices"], 2)
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	NewRouter(seededStore(t), nil).ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type brokenCatalog struct{}

var errBroken = errors.New("disk on fire")

func (brokenCatalog) ListVoices(context.Context) ([]model.Voice, error) { return nil, errBroken }
func (brokenCatalog) ListSolutions(context.Context) ([]model.Solution, error) {
	return nil, errBroken
}
func (brokenCatalog) ListRuntimeSupport(context.Context) ([]model.RuntimeSupport, error) {
	return nil, errBroken
}
func (brokenCatalog) ListProviderSupport(context.Context) ([]model.ProviderSupport, error) {
	return nil, errBroken
}
func (brokenCatalog) ListMatches(context.Context) ([]model.SolutionVoiceMatch, error) {
	return nil, errBroken
}
func (brokenCatalog) GetVoice(context.Context, string) (*model.Voice, error) { return nil, errBroken }
func (brokenCatalog) Search(context.Context, string, int) ([]model.Voice, error) {
	return nil, errBroken
}
func (brokenCatalog) Stats(context.Context) (*catalog.Stats, error) { return nil, errBroken }

func TestStoreErrors(t *testing.T) {
	h := NewRouter(brokenCatalog{}, nil)
	for _, target := range []string{"/stats", "/voices", "/voices/a::b::c", "/solutions", "/site.json"} {
		t.Run(target, func(t *testing.T) {
			rec, body := get(t, h, target)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "internal error", body["error"])
		})
	}
}

func TestParseLimit(t *testing.T) {
	n, err := parseLimit("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = parseLimit("25")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = parseLimit("50000")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, n)

	_, err = parseLimit("0")
	assert.Error(t, err)
}
