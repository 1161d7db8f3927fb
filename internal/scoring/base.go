package scoring

import (
	"sort"
	"strings"
)

const defaultRationale = "basic title/location match"

// Job carries the lexical inputs of a posting. Missing fields are fine and
// simply stop contributing to the score.
type Job struct {
	Title    string
	Location string
}

// Profile carries the lexical inputs of a target persona.
type Profile struct {
	Name    string
	Summary string
	Skills  string
	Region  string
}

// Base computes the feedback-independent relevance estimate for a job against
// a profile from title, location and profile text only. The score is in [0,1]
// and the second return value is a short human-readable rationale. Base never
// fails; empty inputs degrade to a zero score with the default rationale.
func Base(job Job, profile Profile) (float64, string) {
	titleTokens := Tokenize(job.Title)

	skillTokens := make(map[string]struct{})
	for _, raw := range skillSplit.Split(profile.Skills, -1) {
		for t := range Tokenize(raw) {
			skillTokens[t] = struct{}{}
		}
	}

	refTokens := Tokenize(profile.Summary)
	for t := range skillTokens {
		refTokens[t] = struct{}{}
	}

	skillOverlap := Jaccard(titleTokens, refTokens)

	roleMatch := 0.0
	if intersects(titleTokens, roleNouns) {
		roleMatch = 1.0
	}
	// A profile named after its target role counts as a role hit too.
	if intersects(Tokenize(profile.Name), titleTokens) {
		roleMatch = 1.0
	}

	locationMatch := 0.0
	region := Normalize(profile.Region)
	if region != "" && strings.Contains(Normalize(job.Location), region) {
		locationMatch = 1.0
	}
	remote := intersects(titleTokens, remoteTokens) || intersects(Tokenize(job.Location), remoteTokens)
	if remote && locationMatch < 0.5 {
		locationMatch = 0.5
	}

	levelBonus := 0.0
	if intersects(titleTokens, negativeLevel) {
		levelBonus -= 0.25
	}
	if intersects(titleTokens, positiveLevel) {
		levelBonus += 0.05
	}

	// The +0.5 keeps the level term centered so a neutral title neither
	// gains nor loses from it.
	score := 0.55*skillOverlap + 0.25*roleMatch + 0.15*locationMatch + 0.05*(levelBonus+0.5)
	score = clamp01(score)

	return score, rationale(skillOverlap, roleMatch, locationMatch, levelBonus, titleTokens, refTokens)
}

func rationale(skillOverlap, roleMatch, locationMatch, levelBonus float64, titleTokens, refTokens map[string]struct{}) string {
	var bits []string

	if skillOverlap >= 0.25 {
		var overlap []string
		for t := range titleTokens {
			if _, ok := refTokens[t]; !ok {
				continue
			}
			if _, neg := negativeLevel[t]; neg {
				continue
			}
			overlap = append(overlap, t)
		}
		sort.Strings(overlap)
		if len(overlap) > 2 {
			overlap = overlap[:2]
		}
		if len(overlap) > 0 {
			bits = append(bits, "skills: "+strings.Join(overlap, ", "))
		} else {
			bits = append(bits, "skills match")
		}
	}

	if roleMatch >= 1.0 {
		bits = append(bits, "role matches")
	}

	switch {
	case locationMatch >= 1.0:
		bits = append(bits, "region matches")
	case locationMatch >= 0.5:
		bits = append(bits, "remote/hybrid possible")
	}

	switch {
	case levelBonus < 0:
		bits = append(bits, "entry-level/student role")
	case levelBonus > 0.01:
		bits = append(bits, "senior role possible")
	}

	if len(bits) == 0 {
		return defaultRationale
	}
	return strings.Join(bits, " / ")
}
