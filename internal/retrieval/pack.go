package retrieval

import "fmt"

// #region pack-builder
// BuildPack assembles a few-shot reference pack from ranked references:
// the best hooks, beats, and captions from the top four results.
func BuildPack(persona, contentType string, ranked []ScoredReference) Pack {
	pack := Pack{
		StyleCard: fmt.Sprintf("Persona: %s | Content: %s", persona, contentType),
	}
	if len(ranked) == 0 {
		return pack
	}
	pack.Tone = ranked[0].Item.Tone

	top := ranked
	if len(top) > 4 {
		top = top[:4]
	}
	for _, ref := range top {
		it := ref.Item
		if it.Hook != "" && len(pack.BestHooks) < 2 {
			pack.BestHooks = append(pack.BestHooks, it.Hook)
		}
		if len(it.Beats) > 0 && len(pack.BestBeats) < 3 {
			beats := it.Beats
			if len(beats) > 2 {
				beats = beats[:2]
			}
			for _, b := range beats {
				if len(pack.BestBeats) < 3 {
					pack.BestBeats = append(pack.BestBeats, b)
				}
			}
		}
		if it.Caption != "" && len(pack.BestCaptions) < 1 {
			pack.BestCaptions = append(pack.BestCaptions, it.Caption)
		}
	}
	return pack
}

// Snippets flattens a pack into reference snippets for the prompt.
func (p Pack) Snippets() []string {
	var out []string
	out = append(out, p.BestHooks...)
	out = append(out, p.BestBeats...)
	out = append(out, p.BestCaptions...)
	return out
}

// #endregion pack-builder
