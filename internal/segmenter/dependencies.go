package segmenter

// FixDependencies clears every dependency that does not reference an id in
// the collection or that references the record itself. It runs once over the
// complete collection, since ids from later pages are unknown until the run
// ends. The input slice is modified in place and returned.
func FixDependencies(subs []Subactivity) []Subactivity {
	ids := make(map[int]struct{}, len(subs))
	for _, s := range subs {
		ids[s.ID] = struct{}{}
	}

	for i := range subs {
		dep := subs[i].DependsOn
		if dep == nil {
			continue
		}
		if _, ok := ids[*dep]; !ok || *dep == subs[i].ID {
			subs[i].DependsOn = nil
		}
	}

	return subs
}
