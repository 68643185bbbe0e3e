package mutate

import "sort"

// MarkSet holds the notes marked for the next paste. It is shared by all tabs.
type MarkSet struct {
	ids map[int64]struct{}
}

func NewMarkSet() *MarkSet {
	return &MarkSet{ids: map[int64]struct{}{}}
}

// Toggle flips id and reports whether it is now marked.
func (s *MarkSet) Toggle(id int64) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *MarkSet) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *MarkSet) Len() int { return len(s.ids) }

// IDs returns the marked ids in ascending order.
func (s *MarkSet) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *MarkSet) Clear() int {
	n := len(s.ids)
	s.ids = map[int64]struct{}{}
	return n
}
