package harmonize

import (
	"strings"

	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

// Preview sources.
const (
	PreviewSourceIndex    = "worldalphabets"
	PreviewSourceExisting = "existing"
)

// resolvePreviews fills PreviewAudio and PreviewAudios on v. A URL already
// on the record wins; otherwise Azure and Acapela voices are looked up by
// name. Audio index clips come first in the merged list, followed by the
// single legacy URL. primary is the sanitized primary language tag.
func resolvePreviews(v *model.Voice, primary string, refs *reference.Tables) {
	eng := strings.ToLower(v.Engine)

	if v.PreviewAudio == "" {
		switch {
		case strings.Contains(eng, "microsoft") || strings.Contains(eng, "azure"):
			v.PreviewAudio = refs.Azure[v.Name]
		case strings.Contains(eng, "acapela"):
			if p, ok := refs.LookupAcapela(v.Name, primary); ok {
				v.PreviewAudio = p.PreviewAudio
				if v.Quality == "" {
					v.Quality = p.Quality
				}
			}
		}
	}

	var candidates []model.PreviewAudio
	for _, e := range refs.LookupAudio(v.Engine, v.ID) {
		candidates = append(candidates, model.PreviewAudio{
			URL:          e.URL,
			LanguageCode: e.LanguageCode,
			Source:       PreviewSourceIndex,
		})
	}
	if v.PreviewAudio != "" {
		candidates = append(candidates, model.PreviewAudio{
			URL:          v.PreviewAudio,
			LanguageCode: primary,
			Source:       PreviewSourceExisting,
		})
	}

	v.PreviewAudios = DedupePreviews(candidates)
	if v.PreviewAudio == "" && len(v.PreviewAudios) > 0 {
		v.PreviewAudio = v.PreviewAudios[0].URL
	}
}

// DedupePreviews drops empty URLs and repeated URLs, keeping first-seen
// order. It returns nil when nothing is left.
func DedupePreviews(in []model.PreviewAudio) []model.PreviewAudio {
	var out []model.PreviewAudio
	seen := make(map[string]bool, len(in))
	for _, p := range in {
		if p.URL == "" || seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		out = append(out, p)
	}
	return out
}
