package tagger

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/N-Schaef/shreddr/internal/docmodel"
)

// compileMatcher turns a tagged-union MatcherConfig into a predicate over a
// document body. The evaluator switches on Kind rather than dispatching
// through an interface hierarchy, matching the matcher's on-disk shape.
func compileMatcher(cfg docmodel.MatcherConfig) (func(body string) bool, error) {
	switch cfg.Kind {
	case docmodel.MatcherFull:
		re, err := compileRegex(cfg.MatchStr, cfg.CaseInsensitive)
		if err != nil {
			return nil, fmt.Errorf("full matcher %q: %w", cfg.MatchStr, err)
		}
		return re.MatchString, nil

	case docmodel.MatcherRegex:
		re, err := compileRegex(cfg.MatchStr, false)
		if err != nil {
			return nil, fmt.Errorf("regex matcher %q: %w", cfg.MatchStr, err)
		}
		return re.MatchString, nil

	case docmodel.MatcherAny:
		tokens := strings.Fields(cfg.MatchStr)
		res := make([]*regexp.Regexp, 0, len(tokens))
		for _, tok := range tokens {
			re, err := compileRegex(regexp.QuoteMeta(tok), cfg.CaseInsensitive)
			if err != nil {
				return nil, fmt.Errorf("any matcher token %q: %w", tok, err)
			}
			res = append(res, re)
		}
		return func(body string) bool {
			for _, re := range res {
				if re.MatchString(body) {
					return true
				}
			}
			return false
		}, nil

	default:
		return nil, fmt.Errorf("unknown matcher kind %q", cfg.Kind)
	}
}

func compileRegex(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}
