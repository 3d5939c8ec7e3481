package tagger

import "github.com/abadojack/whatlanggo"

// minConfidence is the lowest whatlanggo confidence score inferLanguage
// accepts before reporting a language; below this, a document is left
// unlabeled rather than tagged with an unreliable guess.
const minConfidence = 0.2

// inferLanguage runs whatlanggo's trigram frequency classifier over body and
// returns the ISO 639-1 code of the detected language, or "", false if
// nothing was detected with minConfidence or better.
func inferLanguage(body string) (string, bool) {
	info := whatlanggo.Detect(body)
	if info.Lang == whatlanggo.Und || info.Confidence < minConfidence {
		return "", false
	}
	return info.Lang.Iso6391(), true
}
