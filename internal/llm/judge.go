package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/openai/openai-go"
)

// #region judge-prompt

const judgeSystem = `You are an expert short-video content analyst. Score this script on 5 dimensions (1-5 scale):

1. OVERALL: General quality and effectiveness (1=poor, 5=excellent)
2. HOOK: How compelling is the opening (1=boring, 5=irresistible)
3. ORIGINALITY: How unique/creative (1=generic, 5=highly original)
4. STYLE_FIT: How well it matches the persona (1=off-brand, 5=perfect fit)
5. SAFETY: Platform compliance (1=risky, 5=completely safe)

Return ONLY a JSON object: {"overall": X, "hook": X, "originality": X, "style_fit": X, "safety": X, "confidence": X, "reasoning": "brief explanation"}

Be consistent and objective. Confidence should be 0.1-1.0 based on how certain you are.`

// #endregion judge-prompt

// #region judge

// Judge scores one draft. Any failure — transport, timeout, unparsable or
// out-of-range payload — yields the neutral low-confidence verdict rather
// than an error; the reward aggregator discounts it naturally.
func (c *Client) Judge(ctx context.Context, draft Draft, persona, contentType, tone string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user := fmt.Sprintf(`Script to score:
Title: %s
Hook: %s
Beats: %s
Caption: %s
Persona: %s
Content Type: %s
Tone: %s

Score this script now.`, draft.Title, draft.Hook, strings.Join(draft.Beats, " | "),
		draft.Caption, persona, contentType, tone)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.judgeModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(judgeSystem),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		log.Printf("[JUDGE] call failed, using neutral verdict: %v", err)
		return NeutralVerdict(err.Error())
	}
	if len(resp.Choices) == 0 {
		return NeutralVerdict("empty choices")
	}

	verdict, err := ParseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[JUDGE] bad payload, using neutral verdict: %v", err)
		return NeutralVerdict(err.Error())
	}
	return verdict
}

// #endregion judge

// #region parse

// verdictPayload uses pointers so missing fields are detectable; a partial
// payload must never become a partially-populated verdict.
type verdictPayload struct {
	Overall     *float64 `json:"overall"`
	Hook        *float64 `json:"hook"`
	Originality *float64 `json:"originality"`
	StyleFit    *float64 `json:"style_fit"`
	Safety      *float64 `json:"safety"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
}

// ParseVerdict strictly decodes a judge reply. All five dimensions must be
// present and in 1-5; a missing or out-of-range confidence defaults to 0.7
// as the judge prompt allows it to be omitted-adjacent, but any other
// violation is an error.
func ParseVerdict(out string) (Verdict, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return Verdict{}, errors.New("no JSON object in response")
	}

	var p verdictPayload
	if err := json.Unmarshal([]byte(out[start:end+1]), &p); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}

	dims := map[string]*float64{
		"overall":     p.Overall,
		"hook":        p.Hook,
		"originality": p.Originality,
		"style_fit":   p.StyleFit,
		"safety":      p.Safety,
	}
	for name, v := range dims {
		if v == nil {
			return Verdict{}, fmt.Errorf("missing score %q", name)
		}
		if *v < 1 || *v > 5 {
			return Verdict{}, fmt.Errorf("score %q out of range: %v", name, *v)
		}
	}

	confidence := 0.7
	if p.Confidence != nil && *p.Confidence >= 0.1 && *p.Confidence <= 1.0 {
		confidence = *p.Confidence
	}

	return Verdict{
		Overall:     *p.Overall,
		Hook:        *p.Hook,
		Originality: *p.Originality,
		StyleFit:    *p.StyleFit,
		Safety:      *p.Safety,
		Confidence:  confidence,
		Reasoning:   p.Reasoning,
	}, nil
}

// NeutralVerdict is the defined fallback: all dimensions 3.0 at confidence
// 0.3, so downstream confidence weighting discounts it.
func NeutralVerdict(reason string) Verdict {
	return Verdict{
		Overall:     3.0,
		Hook:        3.0,
		Originality: 3.0,
		StyleFit:    3.0,
		Safety:      3.0,
		Confidence:  0.3,
		Reasoning:   "judge fallback: " + reason,
		Fallback:    true,
	}
}

// #endregion parse
