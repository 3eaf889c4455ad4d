package model

// StatSet is an insertion-ordered map from stat-code to Value.
type StatSet struct {
	keys []string
	vals map[string]Value
}

// Set stores v under code. A new code is appended to the key order; an existing one keeps
// its position.
func (s *StatSet) Set(code string, v Value) {
	if s.vals == nil {
		s.vals = make(map[string]Value)
	}
	if _, ok := s.vals[code]; !ok {
		s.keys = append(s.keys, code)
	}
	s.vals[code] = v
}

func (s *StatSet) Get(code string) (Value, bool) {
	v, ok := s.vals[code]
	return v, ok
}

// Value returns the stored value or Empty when the code is absent.
func (s *StatSet) Value(code string) Value {
	return s.vals[code]
}

func (s *StatSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *StatSet) Len() int { return len(s.keys) }
