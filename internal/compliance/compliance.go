// Package compliance applies the rule-based text-safety check: banned
// phrases fail outright, caution phrases downgrade to a warning.
package compliance

import (
	"regexp"
	"strings"

	"github.com/draftstudio/engine/internal/store"
)

// #region rules

var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(naked|explicit|porn|onlyfans\.com)\b`),
}

var cautionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(hot|naughty|spicy|thirsty)\b`),
}

// #endregion rules

// #region result

// Result is a compliance decision with its reasons.
type Result struct {
	Level   string // pass | warn | fail
	Reasons []string
}

// #endregion result

// #region check

// Check evaluates text. Hard vetoes (banned phrases) decide first; caution
// phrases only downgrade to a warning.
func Check(text string) Result {
	low := strings.ToLower(text)

	for _, pat := range bannedPatterns {
		if pat.MatchString(low) {
			return Result{Level: store.ComplianceFail, Reasons: []string{"banned phrase"}}
		}
	}

	var reasons []string
	for _, pat := range cautionPatterns {
		if pat.MatchString(low) {
			reasons = append(reasons, "caution phrase")
		}
	}
	if len(reasons) > 0 {
		return Result{Level: store.ComplianceWarn, Reasons: reasons}
	}
	return Result{Level: store.CompliancePass}
}

// CheckItem evaluates an item's full text.
func CheckItem(it *store.Item) Result {
	return Check(it.FullText())
}

// #endregion check
