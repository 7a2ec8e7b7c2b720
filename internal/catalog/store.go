// Package catalog persists the canonical voice catalog and the
// accessibility solution tables in SQLite and reads them back.
package catalog

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/voicecatalog/harmonizer/internal/model"
)

// ErrNotFound is returned when a single-row lookup has no match.
var ErrNotFound = eris.New("catalog: not found")

// Reader is the read side of the catalog used by the exporter and the API.
type Reader interface {
	ListVoices(ctx context.Context) ([]model.Voice, error)
	ListSolutions(ctx context.Context) ([]model.Solution, error)
	ListRuntimeSupport(ctx context.Context) ([]model.RuntimeSupport, error)
	ListProviderSupport(ctx context.Context) ([]model.ProviderSupport, error)
	ListMatches(ctx context.Context) ([]model.SolutionVoiceMatch, error)
}

// RebuildResult counts the rows written by a rebuild.
type RebuildResult struct {
	Voices          int `json:"voices"`
	VoiceUseCases   int `json:"voice_use_cases"`
	Solutions       int `json:"solutions"`
	RuntimeSupport  int `json:"runtime_support"`
	ProviderSupport int `json:"provider_support"`
	Matches         int `json:"solution_matches"`
}

// Stats are headline catalog counters.
type Stats struct {
	Voices    int `json:"voices"`
	Platforms int `json:"platforms"`
	Engines   int `json:"engines"`
}

// UseCase is one seeded accessibility use case.
type UseCase struct {
	ID          string
	Name        string
	Description string
}

// UseCases is the fixed use case catalog. Voice use case rows for other ids
// are not stored.
var UseCases = []UseCase{
	{ID: "screenreader", Name: "Screenreader", Description: "Voice usable in screenreader workflows"},
	{ID: "aac", Name: "AAC", Description: "Voice usable in augmentative communication workflows"},
}

func knownUseCase(id string) bool {
	for _, uc := range UseCases {
		if uc.ID == id {
			return true
		}
	}
	return false
}
