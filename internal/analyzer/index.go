package analyzer

import "image"

// MatchIndex remembers the first block origin seen for every fingerprint.
// Entries are never overwritten: the first occurrence stays the source of
// every later match for the whole pass.
type MatchIndex struct {
	first map[Fingerprint]image.Point
}

func NewMatchIndex() *MatchIndex {
	return &MatchIndex{first: make(map[Fingerprint]image.Point)}
}

// LookupOrInsert returns the stored origin for fp and true, or records at
// as the origin for fp and returns false.
func (m *MatchIndex) LookupOrInsert(fp Fingerprint, at image.Point) (image.Point, bool) {
	if stored, ok := m.first[fp]; ok {
		return stored, true
	}
	m.first[fp] = at
	return at, false
}

// Len is the number of distinct fingerprints seen.
func (m *MatchIndex) Len() int {
	return len(m.first)
}
