package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/samber/lo"
)

// named fills the read-only category names of p.
func (st *state) named(p core.Part) core.Part {
	p.CategoryName, p.ParentCategoryName = "", ""
	if p.CategoryID == nil {
		return p
	}
	c, ok := st.categories[*p.CategoryID]
	if !ok {
		return p
	}
	p.CategoryName = c.Name
	if c.ParentID != nil {
		p.ParentCategoryName = st.categories[*c.ParentID].Name
	}
	return p
}

// allParts returns every part in id order.
func (st *state) allParts() []core.Part {
	out := make([]core.Part, 0, len(st.parts))
	for _, p := range st.parts {
		out = append(out, st.named(p))
	}
	slices.SortFunc(out, func(a, b core.Part) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (st *state) filter(f core.PartFilter) []core.Part {
	return lo.Filter(st.allParts(), func(p core.Part, _ int) bool { return f.Matches(p) })
}

func page(parts []core.Part, req core.PageRequest) ([]core.Part, int64) {
	core.SortParts(parts, req.Sort, req.Order)
	return slices.Clone(core.Paginate(parts, req)), int64(len(parts))
}

func (s *Store) PartByID(_ context.Context, id int64) (core.Part, error) {
	defer s.rlock()()
	p, ok := s.st.parts[id]
	if !ok {
		return core.Part{}, notFound("part", id)
	}
	return s.st.named(p), nil
}

func (s *Store) PartByNumber(_ context.Context, partNumber string) (core.Part, error) {
	defer s.rlock()()
	if id, ok := s.st.numbers[partNumber]; ok {
		return s.st.named(s.st.parts[id]), nil
	}
	return core.Part{}, notFound("part", partNumber)
}

func (s *Store) PartNumberExists(_ context.Context, partNumber string, excludeID int64) (bool, error) {
	defer s.rlock()()
	return s.st.partNumberTaken(partNumber, excludeID), nil
}

func (st *state) partNumberTaken(partNumber string, excludeID int64) bool {
	id, ok := st.numbers[partNumber]
	return ok && id != excludeID
}

func (s *Store) ListParts(_ context.Context, req core.PageRequest) ([]core.Part, int64, error) {
	defer s.rlock()()
	parts, total := page(s.st.allParts(), req)
	return parts, total, nil
}

func (s *Store) AllParts(_ context.Context) ([]core.Part, error) {
	defer s.rlock()()
	return s.st.allParts(), nil
}

func (s *Store) SearchParts(_ context.Context, f core.PartFilter, req core.PageRequest) ([]core.Part, int64, error) {
	defer s.rlock()()
	parts, total := page(s.st.filter(f), req)
	return parts, total, nil
}

func (s *Store) FilterParts(_ context.Context, f core.PartFilter) ([]core.Part, error) {
	defer s.rlock()()
	return s.st.filter(f), nil
}

func (s *Store) CountParts(_ context.Context, f core.PartFilter) (int64, error) {
	defer s.rlock()()
	if f.IsEmpty() {
		return int64(len(s.st.parts)), nil
	}
	return int64(len(s.st.filter(f))), nil
}

func (s *Store) AggregateParts(_ context.Context, f core.PartFilter) (core.PartAggregates, error) {
	defer s.rlock()()
	return core.AggregateParts(s.st.filter(f)), nil
}

func (s *Store) KeywordParts(_ context.Context, keyword string, req core.PageRequest) ([]core.Part, int64, error) {
	defer s.rlock()()
	kw := strings.ToLower(keyword)
	matches := lo.Filter(s.st.allParts(), func(p core.Part, _ int) bool {
		return strings.Contains(strings.ToLower(p.PartNumber), kw) ||
			strings.Contains(strings.ToLower(p.PartName), kw) ||
			strings.Contains(strings.ToLower(p.Manufacturer), kw)
	})
	parts, total := page(matches, req)
	return parts, total, nil
}

func (s *Store) InsertPart(_ context.Context, p core.Part) (core.Part, error) {
	defer s.lock()()
	if s.st.partNumberTaken(p.PartNumber, 0) {
		return core.Part{}, duplicate("part number", p.PartNumber)
	}
	s.st.nextPartID++
	p.ID = s.st.nextPartID
	p.CategoryName, p.ParentCategoryName = "", ""
	s.st.setPart(p)
	return s.st.named(p), nil
}

func (s *Store) UpdatePart(_ context.Context, p core.Part) (core.Part, error) {
	defer s.lock()()
	if _, ok := s.st.parts[p.ID]; !ok {
		return core.Part{}, notFound("part", p.ID)
	}
	if s.st.partNumberTaken(p.PartNumber, p.ID) {
		return core.Part{}, duplicate("part number", p.PartNumber)
	}
	p.CategoryName, p.ParentCategoryName = "", ""
	s.st.setPart(p)
	return s.st.named(p), nil
}

func (s *Store) DeletePart(_ context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.st.parts[id]; !ok {
		return notFound("part", id)
	}
	s.st.removePart(id)
	return nil
}
