package scoring

import (
	"regexp"
	"strings"
)

var stopwords = map[string]struct{}{
	"und": {}, "oder": {}, "mit": {}, "fuer": {}, "der": {}, "die": {}, "das": {},
	"den": {}, "dem": {}, "ein": {}, "eine": {}, "in": {}, "von": {}, "an": {},
	"im": {}, "am": {}, "auf": {}, "bei": {}, "zu": {}, "aus": {}, "per": {},
	"the": {}, "of": {}, "to": {},
}

// roleSynonyms canonicalizes German role words so that titles and profile
// skills compare in the same vocabulary.
var roleSynonyms = map[string]string{
	"berater":         "consultant",
	"daten":           "data",
	"wissenschaftler": "scientist",
	"ingenieur":       "engineer",
	"entwickler":      "developer",
	"analyse":         "analytics",
	"analyst":         "analyst",
	"architekt":       "architect",
}

var roleNouns = map[string]struct{}{
	"consultant": {}, "analyst": {}, "architect": {},
	"engineer": {}, "scientist": {}, "developer": {},
}

// Normalization splits "home-office" into separate tokens, so the hyphenated
// spelling is covered by "home".
var remoteTokens = map[string]struct{}{
	"remote": {}, "homeoffice": {}, "home": {}, "hybrid": {},
}

var negativeLevel = map[string]struct{}{
	"werkstudent": {}, "praktikum": {}, "trainee": {},
}

var positiveLevel = map[string]struct{}{
	"senior": {}, "lead": {}, "principal": {}, "head": {},
}

var (
	nonToken   = regexp.MustCompile(`[^a-z0-9+#]+`)
	spaces     = regexp.MustCompile(`\s+`)
	skillSplit = regexp.MustCompile(`[;,/|]`)
)

var umlautReplacer = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// Normalize lowercases, folds umlauts to ASCII digraphs and strips everything
// outside [a-z0-9+#].
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = umlautReplacer.Replace(s)
	s = nonToken.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits normalized text into a token set with stopwords removed and
// role synonyms mapped to their canonical form.
func Tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(Normalize(s)) {
		if _, stop := stopwords[t]; stop {
			continue
		}
		if canonical, ok := roleSynonyms[t]; ok {
			t = canonical
		}
		tokens[t] = struct{}{}
	}
	return tokens
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func intersects(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
