package compat

import "sort"

// Match is one ranked candidate.
type Match struct {
	Profile Profile `json:"profile"`
	Result
}

// Rank scores every active candidate against viewer and orders them best
// first. Ties keep a stable order by user id. The viewer's own profile is
// skipped if it appears among the candidates.
func Rank(viewer Profile, candidates []Profile) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if !c.Active || (viewer.UserID != 0 && c.UserID == viewer.UserID) {
			continue
		}
		matches = append(matches, Match{Profile: c, Result: Compatibility(viewer, c)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Profile.UserID < matches[j].Profile.UserID
	})
	return matches
}
