package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/samber/lo"
)

func (st *state) namedCategory(c core.Category) core.Category {
	c.ParentName = ""
	if c.ParentID != nil {
		c.ParentName = st.categories[*c.ParentID].Name
	}
	return c
}

// categoriesWhere returns matching categories by display order, then name.
func (st *state) categoriesWhere(keep func(core.Category) bool) []core.Category {
	out := []core.Category{}
	for _, c := range st.categories {
		if keep(c) {
			out = append(out, st.namedCategory(c))
		}
	}
	slices.SortFunc(out, func(a, b core.Category) int {
		if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) CategoryByID(_ context.Context, id int64) (core.Category, error) {
	defer s.rlock()()
	c, ok := s.st.categories[id]
	if !ok {
		return core.Category{}, notFound("category", id)
	}
	return s.st.namedCategory(c), nil
}

func (s *Store) AllCategories(_ context.Context, activeOnly bool) ([]core.Category, error) {
	defer s.rlock()()
	return s.st.categoriesWhere(func(c core.Category) bool {
		return !activeOnly || c.IsActive
	}), nil
}

func (s *Store) ParentCategories(_ context.Context, activeOnly bool) ([]core.Category, error) {
	defer s.rlock()()
	return s.st.categoriesWhere(func(c core.Category) bool {
		return c.ParentID == nil && (!activeOnly || c.IsActive)
	}), nil
}

func (s *Store) ChildCategories(_ context.Context, parentIDs ...int64) ([]core.Category, error) {
	defer s.rlock()()
	return s.st.categoriesWhere(func(c core.Category) bool {
		return c.ParentID != nil && slices.Contains(parentIDs, *c.ParentID)
	}), nil
}

func (s *Store) SearchCategories(_ context.Context, keyword string) ([]core.Category, error) {
	defer s.rlock()()
	kw := strings.ToLower(keyword)
	return s.st.categoriesWhere(func(c core.Category) bool {
		return strings.Contains(strings.ToLower(c.Name), kw) ||
			strings.Contains(strings.ToLower(c.Description), kw)
	}), nil
}

func (s *Store) CategoryNameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	defer s.rlock()()
	return s.st.categoryNameTaken(name, excludeID), nil
}

func (st *state) categoryNameTaken(name string, excludeID int64) bool {
	for id, c := range st.categories {
		if id != excludeID && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CountChildren(_ context.Context, id int64) (int64, error) {
	defer s.rlock()()
	n := lo.CountBy(lo.Values(s.st.categories), func(c core.Category) bool {
		return c.ParentID != nil && *c.ParentID == id
	})
	return int64(n), nil
}

func (s *Store) CountPartsInCategory(_ context.Context, id int64) (int64, error) {
	defer s.rlock()()
	n := lo.CountBy(lo.Values(s.st.parts), func(p core.Part) bool {
		return p.CategoryID != nil && *p.CategoryID == id
	})
	return int64(n), nil
}

func (s *Store) CategoryPartCounts(_ context.Context) (map[int64]int64, error) {
	defer s.rlock()()
	out := map[int64]int64{}
	for _, p := range s.st.parts {
		if p.CategoryID != nil {
			out[*p.CategoryID]++
		}
	}
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (core.Category, error) {
	defer s.lock()()
	if s.st.categoryNameTaken(c.Name, 0) {
		return core.Category{}, duplicate("category name", c.Name)
	}
	s.st.nextCategoryID++
	c.ID = s.st.nextCategoryID
	c.ParentName = ""
	s.st.setCategory(c)
	return s.st.namedCategory(c), nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	defer s.lock()()
	if _, ok := s.st.categories[c.ID]; !ok {
		return core.Category{}, notFound("category", c.ID)
	}
	if s.st.categoryNameTaken(c.Name, c.ID) {
		return core.Category{}, duplicate("category name", c.Name)
	}
	c.ParentName = ""
	s.st.setCategory(c)
	return s.st.namedCategory(c), nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.st.categories[id]; !ok {
		return notFound("category", id)
	}
	s.st.removeCategory(id)
	return nil
}
