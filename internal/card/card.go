// Package card parses structured word cards out of assistant answers.
//
// A word card is a line-oriented text block with Traditional-Chinese field
// markers. The word-lookup capability produces this format and this package
// consumes it; the two sides are versioned together. Parsing is deliberately
// lenient: fields that cannot be found stay empty and the raw text is always
// kept, so a malformed card degrades to an unstructured answer instead of an
// error.
package card

import "strings"

// Field markers of the word-card grammar. Must appear literally at the
// start of a line.
const (
	MarkerWord         = "單字："
	MarkerPartOfSpeech = "詞性："
	MarkerDefinition   = "定義："
	MarkerTips         = "使用建議："
	MarkerRelated      = "相關詞彙："
	MarkerExample      = "-> "
	markerTranslation  = "(中文翻譯："
)

// Card holds the fields extracted from one answer. Raw always carries the
// verbatim answer text, whether or not it was structured.
type Card struct {
	Structured   bool
	Word         string
	PartOfSpeech string
	Definition   string
	Examples     []string
	RelatedWords string
	Tips         string
	Raw          string
}

// Parse classifies and parses text. The block counts as structured iff it
// contains at least one 單字： line and one 定義： line; everything else is
// returned as-is with Structured=false.
func Parse(text string) Card {
	c := Card{Raw: text}

	if !strings.Contains(text, MarkerWord) || !strings.Contains(text, MarkerDefinition) {
		return c
	}
	c.Structured = true

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "---" {
			continue
		}

		switch {
		case strings.HasPrefix(line, MarkerWord):
			c.Word = strings.TrimSpace(strings.TrimPrefix(line, MarkerWord))
		case strings.HasPrefix(line, MarkerPartOfSpeech):
			c.PartOfSpeech = strings.TrimSpace(strings.TrimPrefix(line, MarkerPartOfSpeech))
		case strings.HasPrefix(line, MarkerDefinition):
			c.Definition = strings.TrimSpace(strings.TrimPrefix(line, MarkerDefinition))
		case strings.HasPrefix(line, MarkerRelated):
			c.RelatedWords = strings.TrimSpace(strings.TrimPrefix(line, MarkerRelated))
		case strings.HasPrefix(line, MarkerTips):
			c.Tips = strings.TrimSpace(strings.TrimPrefix(line, MarkerTips))
		case strings.HasPrefix(line, MarkerExample):
			c.Examples = append(c.Examples, strings.TrimSpace(strings.TrimPrefix(line, MarkerExample)))
		case strings.HasPrefix(line, markerTranslation) && strings.HasSuffix(line, ")"):
			// A translation continuation attaches to the example right
			// above it; a stray translation with no example is dropped.
			if n := len(c.Examples); n > 0 {
				translation := strings.TrimSuffix(strings.TrimPrefix(line, markerTranslation), ")")
				c.Examples[n-1] += "\n" + translation
			}
		}
	}

	return c
}
