package filter

import (
	"encoding/json"
	"sort"
)

// Set - множество выбранных значений одного измерения
type Set map[string]struct{}

// NewSet создает множество из значений; повторы схлопываются
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has проверяет принадлежность
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted возвращает значения по возрастанию
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON - отсортированный массив строк
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON читает массив строк
func (s *Set) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewSet(values...)
	return nil
}
