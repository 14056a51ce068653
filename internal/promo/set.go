package promo

// MemorySet implements SeedSet as an ordered slice deduplicated by code.
type MemorySet struct {
	seen  map[string]struct{}
	seeds []Seed
}

// NewSeedSet creates an empty seed set.
func NewSeedSet() *MemorySet {
	return &MemorySet{seen: make(map[string]struct{})}
}

// Add inserts a seed. The first seed for a code wins and Add reports
// whether s was inserted.
func (s *MemorySet) Add(seed Seed) bool {
	if _, exists := s.seen[seed.Code]; exists {
		return false
	}
	s.seen[seed.Code] = struct{}{}
	s.seeds = append(s.seeds, seed)
	return true
}

func (s *MemorySet) All() []Seed {
	out := make([]Seed, len(s.seeds))
	copy(out, s.seeds)
	return out
}

func (s *MemorySet) Size() int {
	return len(s.seeds)
}
