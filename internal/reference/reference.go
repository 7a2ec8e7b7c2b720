// Package reference loads the static lookup tables the harmonizer and the
// site exporter consult: geo data, preview maps, the audio preview index,
// taxonomy rules, accessibility solutions, country populations and
// language speaker counts.
package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/taxonomy"
)

// Reference file names inside the reference directory.
const (
	GeoFile         = "geo-data.json"
	AzureFile       = "azure_voice_previews.json"
	AcapelaFile     = "acapela_voice_previews.json"
	AudioIndexFile  = "worldalphabets_audio_index.json"
	TaxonomyFile    = "voice-taxonomy-map.yaml"
	SolutionsFile   = "accessibility-solutions.yaml"
	PopulationFile  = "country-population.json"
	LanguageSpkFile = "language-speakers.json"
)

// Tables is the full set of reference lookups for one run. It is built
// once and only read afterwards.
type Tables struct {
	Geo        map[string]model.GeoInfo
	Azure      map[string]string
	Acapela    map[AcapelaKey]AcapelaPreview
	AudioIndex map[AudioKey][]AudioEntry
	Taxonomy   *taxonomy.Rules
	Solutions  []model.Solution
	Population map[string]int64
	Speakers   *SpeakerTable
}

// Empty returns tables with no reference data.
func Empty() *Tables {
	return &Tables{
		Geo:        map[string]model.GeoInfo{},
		Azure:      map[string]string{},
		Acapela:    map[AcapelaKey]AcapelaPreview{},
		AudioIndex: map[AudioKey][]AudioEntry{},
		Taxonomy:   taxonomy.Empty(),
		Population: map[string]int64{},
		Speakers:   NewSpeakerTable(nil),
	}
}

// Load reads every reference file under dir concurrently. Missing files
// leave the corresponding table empty. Malformed files are logged and
// treated as missing so one bad file never blocks the run.
func Load(ctx context.Context, dir string) (*Tables, error) {
	log := zap.L().With(zap.String("component", "reference"), zap.String("dir", dir))
	t := Empty()

	g, ctx := errgroup.WithContext(ctx)
	load := func(name string, fn func(path string) error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if err := fn(path); err != nil {
				log.Warn("reference file unusable, continuing without it",
					zap.String("file", name),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	load(GeoFile, func(p string) (err error) { t.Geo, err = LoadGeo(p); return })
	load(AzureFile, func(p string) (err error) { t.Azure, err = LoadAzurePreviews(p); return })
	load(AcapelaFile, func(p string) (err error) { t.Acapela, err = LoadAcapelaPreviews(p); return })
	load(AudioIndexFile, func(p string) (err error) { t.AudioIndex, err = LoadAudioIndex(p); return })
	load(TaxonomyFile, func(p string) error {
		rules, err := taxonomy.LoadRules(p)
		if err != nil {
			return err
		}
		t.Taxonomy = rules
		return nil
	})
	load(SolutionsFile, func(p string) (err error) { t.Solutions, err = LoadSolutions(p); return })
	load(PopulationFile, func(p string) (err error) { t.Population, err = LoadPopulation(p); return })
	load(LanguageSpkFile, func(p string) (err error) { t.Speakers, err = LoadSpeakers(p); return })

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "reference: load")
	}
	t.fillNil()

	log.Info("reference data loaded",
		zap.Int("geo", len(t.Geo)),
		zap.Int("azure_previews", len(t.Azure)),
		zap.Int("acapela_previews", len(t.Acapela)),
		zap.Int("audio_index_keys", len(t.AudioIndex)),
		zap.Int("solutions", len(t.Solutions)),
		zap.Int("population_countries", len(t.Population)),
		zap.Int("speaker_languages", t.Speakers.Len()),
	)
	return t, nil
}

// fillNil restores empty tables where a failed loader assigned nil.
func (t *Tables) fillNil() {
	e := Empty()
	if t.Geo == nil {
		t.Geo = e.Geo
	}
	if t.Azure == nil {
		t.Azure = e.Azure
	}
	if t.Acapela == nil {
		t.Acapela = e.Acapela
	}
	if t.AudioIndex == nil {
		t.AudioIndex = e.AudioIndex
	}
	if t.Taxonomy == nil {
		t.Taxonomy = e.Taxonomy
	}
	if t.Population == nil {
		t.Population = e.Population
	}
	if t.Speakers == nil {
		t.Speakers = e.Speakers
	}
}

// readJSON decodes path into v. found is false when the file does not exist.
func readJSON(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "reference: read %s", filepath.Base(path))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return true, eris.Wrapf(err, "reference: parse %s", filepath.Base(path))
	}
	return true, nil
}
