package narrative

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Modern profanity that breaks the register of a cultivation narrative.
// Kept to words a generator actually produces; slurs are cut outright
// rather than softened.
var profanity = []string{
	"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap",
	"asshole", "dumbass", "jackass", "bullshit", "goddamn",
	"motherfucker", "prick", "dickhead",
}

// profanityReplacements swaps each word for something a wandering
// cultivator might plausibly say.
var profanityReplacements = map[string]string{
	"fuck":         "curse",
	"shit":         "dregs",
	"damn":         "confound",
	"hell":         "netherworld",
	"ass":          "mule",
	"bitch":        "wretch",
	"bastard":      "scoundrel",
	"crap":         "refuse",
	"asshole":      "scoundrel",
	"dumbass":      "fool",
	"jackass":      "fool",
	"bullshit":     "nonsense",
	"goddamn":      "heaven-cursed",
	"motherfucker": "villain",
	"prick":        "lout",
	"dickhead":     "lout",
}

// anachronisms are modern idioms that read wrong against the setting.
// They are reported, not rewritten; only an author can fix tone.
var anachronisms = []string{
	"okay", "ok", "cool", "awesome", "guys", "literally",
	"basically", "super", "wow", "yeah",
}

// Filter screens generated narration for words that break the setting.
type Filter struct {
	profane map[string]*regexp.Regexp
	modern  map[string]*regexp.Regexp
}

func NewFilter() *Filter {
	f := &Filter{
		profane: make(map[string]*regexp.Regexp, len(profanity)),
		modern:  make(map[string]*regexp.Regexp, len(anachronisms)),
	}
	for _, word := range profanity {
		f.profane[word] = wordPattern(word)
	}
	for _, word := range anachronisms {
		f.modern[word] = wordPattern(word)
	}
	return f
}

func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

// Sanitize replaces profanity with in-setting alternatives, preserving
// the case shape of the original word.
func (f *Filter) Sanitize(text string) string {
	result := text
	for _, word := range profanity {
		replacement := profanityReplacements[word]
		result = f.profane[word].ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// ContainsProfanity reports whether any screened word appears.
func (f *Filter) ContainsProfanity(text string) bool {
	for _, re := range f.profane {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Anachronisms returns the modern idioms found in the text, in the
// screening list's order. Empty when the text reads clean.
func (f *Filter) Anachronisms(text string) []string {
	var found []string
	for _, word := range anachronisms {
		if f.modern[word].MatchString(text) {
			found = append(found, word)
		}
	}
	return found
}

// preserveCase shapes the replacement after the original: ALL CAPS,
// lowercase, Title, or per-rune for mixed case.
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	result := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	for i, r := range replacement {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}
	return string(result)
}

// SanitizeForRating reports whether narration under the given audience
// rating should pass through the filter. Unknown ratings pass untouched.
func SanitizeForRating(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	}
	return false
}
