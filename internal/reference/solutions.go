package reference

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/voicecatalog/harmonizer/internal/engine"
	"github.com/voicecatalog/harmonizer/internal/model"
)

// brokerRuntimes are runtimes that relay to other engines rather than
// synthesizing speech themselves.
var brokerRuntimes = map[string]bool{
	"speechdispatcher":                  true,
	"browserspeechsynthesiswebspeechapi": true,
	"webspeechapi":                      true,
}

// LoadSolutions reads accessibility-solutions.yaml and returns the valid,
// normalized solutions. A missing file yields no solutions.
func LoadSolutions(path string) ([]model.Solution, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", filepath.Base(path))
	}
	var doc struct {
		Solutions []model.Solution `yaml:"solutions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "reference: parse %s", filepath.Base(path))
	}
	return NormalizeSolutions(doc.Solutions, filepath.Base(path)), nil
}

// NormalizeSolutions drops solutions without an id or with a category other
// than screenreader/aac, and canonicalizes support rows.
func NormalizeSolutions(in []model.Solution, source string) []model.Solution {
	out := make([]model.Solution, 0, len(in))
	for _, s := range in {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			continue
		}
		s.Category = strings.ToLower(strings.TrimSpace(s.Category))
		if s.Category != model.CategoryScreenreader && s.Category != model.CategoryAAC {
			continue
		}
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			s.Name = s.ID
		}
		s.Vendor = strings.TrimSpace(s.Vendor)
		if s.Platforms == nil {
			s.Platforms = []string{}
		}
		if s.Links == nil {
			s.Links = []model.SolutionLink{}
		}
		s.Source = source

		runtimes := make([]model.RuntimeSupport, 0, len(s.RuntimeSupport))
		for _, rs := range s.RuntimeSupport {
			rs.Runtime = strings.TrimSpace(rs.Runtime)
			if rs.Runtime == "" {
				continue
			}
			rs.SolutionID = s.ID
			rs.RuntimeClass = NormalizeRuntimeClass(rs.RuntimeClass, rs.Runtime)
			rs.SupportLevel = model.ParseSupportLevel(string(rs.SupportLevel))
			rs.Mode = strings.TrimSpace(rs.Mode)
			rs.Notes = strings.TrimSpace(rs.Notes)
			runtimes = append(runtimes, rs)
		}
		s.RuntimeSupport = runtimes

		providers := make([]model.ProviderSupport, 0, len(s.ProviderSupport))
		for _, ps := range s.ProviderSupport {
			ps.Provider = strings.TrimSpace(ps.Provider)
			if ps.Provider == "" {
				continue
			}
			ps.SolutionID = s.ID
			ps.SupportLevel = model.ParseSupportLevel(string(ps.SupportLevel))
			ps.Mode = strings.TrimSpace(ps.Mode)
			ps.Notes = strings.TrimSpace(ps.Notes)
			providers = append(providers, ps)
		}
		s.ProviderSupport = providers

		out = append(out, s)
	}
	return out
}

// NormalizeRuntimeClass keeps an explicit direct/broker class and otherwise
// infers it from the runtime name.
func NormalizeRuntimeClass(class, runtime string) string {
	switch c := strings.ToLower(strings.TrimSpace(class)); c {
	case model.RuntimeClassDirect, model.RuntimeClassBroker:
		return c
	}
	if brokerRuntimes[engine.Token(runtime)] {
		return model.RuntimeClassBroker
	}
	return model.RuntimeClassDirect
}
