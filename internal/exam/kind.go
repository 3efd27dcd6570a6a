package exam

import (
	"regexp"
	"strings"
)

// SectionKind is the closed set of question layouts a page can render.
type SectionKind string

const (
	KindChoice          SectionKind = "choice"
	KindCloze           SectionKind = "cloze"
	KindGrammarFill     SectionKind = "grammar_fill"
	KindSevenChooseFive SectionKind = "seven_choose_five"
	KindWriting         SectionKind = "writing"
)

var sectionKinds = map[string]SectionKind{
	"choice":            KindChoice,
	"reading":           KindChoice,
	"listening":         KindChoice,
	"cloze":             KindCloze,
	"cloze_test":        KindCloze,
	"grammar":           KindGrammarFill,
	"grammar_fill":      KindGrammarFill,
	"grammar_fill_in":   KindGrammarFill,
	"fill_blank":        KindGrammarFill,
	"seven_choose_five": KindSevenChooseFive,
	"7_choose_5":        KindSevenChooseFive,
	"gapped_text":       KindSevenChooseFive,
	"writing":           KindWriting,
	"essay":             KindWriting,
}

// SectionKindOf maps a backend section category onto a SectionKind.
// Anything unrecognised renders as plain choice.
func SectionKindOf(category string) SectionKind {
	key := strings.ToLower(strings.TrimSpace(category))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if k, ok := sectionKinds[key]; ok {
		return k
	}
	return KindChoice
}

// HasOptions reports whether questions of this kind are answered by picking an option.
func (k SectionKind) HasOptions() bool {
	switch k {
	case KindGrammarFill, KindWriting:
		return false
	default:
		return true
	}
}

// MaxLetter is the last valid option letter, or 0 for free-text kinds.
func (k SectionKind) MaxLetter() byte {
	switch k {
	case KindSevenChooseFive:
		return 'G'
	case KindChoice, KindCloze:
		return 'D'
	default:
		return 0
	}
}

// Columns is the option grid width; cloze is laid out densely.
func (k SectionKind) Columns() int {
	if k == KindCloze {
		return 2
	}
	return 1
}

// MultiLine reports whether the answer field is a text area.
func (k SectionKind) MultiLine() bool {
	return k == KindWriting
}

var leadingLetter = regexp.MustCompile(`^\s*[(（]?([A-Z])\s*[.．、:：)）]`)

// ExtractLetter recovers the canonical letter of an option. A leading
// "C." / "C)" / "(C)" within the kind's range wins; otherwise the letter
// is derived from the option's position. index < 0 means the position is
// unknown.
func ExtractLetter(kind SectionKind, option string, index int) string {
	maxLetter := kind.MaxLetter()
	if maxLetter == 0 {
		return ""
	}
	if m := leadingLetter.FindStringSubmatch(option); m != nil {
		if l := m[1][0]; l >= 'A' && l <= maxLetter {
			return m[1]
		}
	}
	if index < 0 || index > int(maxLetter-'A') {
		return ""
	}
	return string(rune('A' + index))
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
