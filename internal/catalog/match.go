package catalog

import (
	"github.com/voicecatalog/harmonizer/internal/engine"
	"github.com/voicecatalog/harmonizer/internal/model"
)

// MatchSolutions pairs every solution with the voices it can drive. A voice
// matches when its runtime or provider token appears in the solution's
// support rows; the better of the two levels is kept and pairs that end up
// unknown or unsupported are dropped.
func MatchSolutions(voices []model.Voice, solutions []model.Solution) []model.SolutionVoiceMatch {
	var out []model.SolutionVoiceMatch
	for _, s := range solutions {
		if s.ID == "" {
			continue
		}
		runtimes := make(map[string]model.SupportLevel, len(s.RuntimeSupport))
		for _, rs := range s.RuntimeSupport {
			if rs.Runtime != "" {
				runtimes[engine.Token(rs.Runtime)] = model.ParseSupportLevel(string(rs.SupportLevel))
			}
		}
		providers := make(map[string]model.SupportLevel, len(s.ProviderSupport))
		for _, ps := range s.ProviderSupport {
			if ps.Provider != "" {
				providers[engine.Token(ps.Provider)] = model.ParseSupportLevel(string(ps.SupportLevel))
			}
		}
		if len(runtimes) == 0 && len(providers) == 0 {
			continue
		}

		for _, v := range voices {
			runtimeLevel, byRuntime := runtimes[engine.Token(v.Runtime)]
			providerLevel, byProvider := providers[engine.Token(v.Provider)]
			if !byRuntime && !byProvider {
				continue
			}
			level := model.BestSupportLevel(runtimeLevel, providerLevel)
			if !level.Matched() {
				continue
			}
			reason := model.ReasonProvider
			switch {
			case byRuntime && byProvider:
				reason = model.ReasonBoth
			case byRuntime:
				reason = model.ReasonRuntime
			}
			out = append(out, model.SolutionVoiceMatch{
				SolutionID:   s.ID,
				VoiceKey:     v.Key,
				SupportLevel: level,
				Reason:       reason,
				Category:     s.Category,
			})
		}
	}
	return out
}
