package harmonize

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

// ErrNoVoices is returned when a run finds nothing to catalog. The existing
// catalog is left untouched.
var ErrNoVoices = eris.New("harmonize: no voices to process")

// Store is the catalog sink a pipeline run rebuilds.
type Store interface {
	Rebuild(ctx context.Context, voices []model.Voice, solutions []model.Solution) (*catalog.RebuildResult, error)
}

// Options configures one pipeline run.
type Options struct {
	RawDir     string
	SourceName string
}

// Result describes a completed run.
type Result struct {
	RunID        string
	Load         LoadReport
	Deduplicated int
	Voices       []model.Voice
	Catalog      *catalog.RebuildResult
	Elapsed      time.Duration
}

// Run loads, deduplicates and enriches the raw directory and rebuilds the
// catalog from the result. Stages run one after another over full batches.
func Run(ctx context.Context, opts Options, refs *reference.Tables, st Store) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("component", "harmonize"), zap.String("run_id", res.RunID))
	log.Info("harmonize: starting run", zap.String("raw_dir", opts.RawDir))

	if refs == nil {
		refs = reference.Empty()
	}

	raw, report := LoadRawDir(opts.RawDir)
	res.Load = report

	deduped := Deduplicate(raw)
	res.Deduplicated = len(deduped)
	log.Info("harmonize: deduplicated",
		zap.Int("raw", len(raw)),
		zap.Int("unique", len(deduped)),
	)

	if len(deduped) == 0 {
		log.Error("harmonize: no voices to process, keeping existing catalog",
			zap.Int("files", report.Files),
			zap.Int("failed_files", report.FailedFiles),
		)
		return nil, ErrNoVoices
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "harmonize: run cancelled")
	}

	res.Voices = NewEnricher(refs, opts.SourceName).Enrich(deduped)

	out, err := st.Rebuild(ctx, res.Voices, refs.Solutions)
	if err != nil {
		return nil, eris.Wrap(err, "harmonize: rebuild catalog")
	}
	res.Catalog = out
	res.Elapsed = time.Since(start)

	log.Info("harmonize: run complete",
		zap.Int("voices", out.Voices),
		zap.Int("use_cases", out.VoiceUseCases),
		zap.Int("solutions", out.Solutions),
		zap.Int("solution_matches", out.Matches),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
