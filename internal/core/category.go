package core

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/samber/lo"
)

// CategoryInput carries the caller-editable fields of a category.
// A nil IsActive means true on create and "unchanged" on update.
type CategoryInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     *bool  `json:"isActive"`
	ParentID     *int64 `json:"parentId"`
}

// SaveCategory inserts a category when id is 0 and fully updates category
// id otherwise. The hierarchy is at most two levels deep: a parent must be
// top-level, and a category with children cannot itself get a parent.
func (s *Service) SaveCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	c := Category{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
		ParentID:     in.ParentID,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := validateCategory(c); err != nil {
		return Category{}, err
	}

	var saved Category
	err := s.store.InTx(ctx, func(tx Store) error {
		var existing Category
		if id != 0 {
			var err error
			if existing, err = tx.CategoryByID(ctx, id); err != nil {
				return err
			}
			if in.IsActive == nil {
				c.IsActive = existing.IsActive
			}
		}

		if err := checkParent(ctx, tx, c); err != nil {
			return err
		}

		exists, err := tx.CategoryNameExists(ctx, c.Name, id)
		if err != nil {
			return err
		}
		if exists {
			return conflict("category name already exists: %s", c.Name)
		}

		now := s.now()
		c.UpdatedAt = now
		if id == 0 {
			c.CreatedAt = now
			saved, err = tx.InsertCategory(ctx, c)
		} else {
			c.CreatedAt = existing.CreatedAt
			saved, err = tx.UpdateCategory(ctx, c)
		}
		return err
	})
	if err != nil {
		return Category{}, wrapStore("save category", err)
	}

	action := ActionCategoryUpdate
	if id == 0 {
		action = ActionCategoryCreate
	}
	logging.WithFields(ctx, "category_id", saved.ID, "name", saved.Name).Info("category saved", "action", action)
	s.record(ctx, action, "category", saved.ID, saved.Name, nil)
	return saved, nil
}

func validateCategory(c Category) error {
	if c.Name == "" {
		return invalid("name", "", "category name is required")
	}
	if c.ParentID != nil && c.ID != 0 && *c.ParentID == c.ID {
		return invalid("parentId", formatID(c.ID), "a category cannot be its own parent category")
	}
	return firstError(
		checkLength("name", c.Name, maxCategoryNameLen),
		checkLength("description", c.Description, maxCategoryDescLen),
	)
}

// checkParent enforces the depth limit for c against current state.
func checkParent(ctx context.Context, tx Store, c Category) error {
	if c.ParentID == nil {
		return nil
	}
	parent, err := tx.CategoryByID(ctx, *c.ParentID)
	if errors.Is(err, ErrNotFound) {
		return invalid("parentId", formatID(*c.ParentID), "parent category does not exist")
	}
	if err != nil {
		return err
	}
	if !parent.IsParent() {
		return invalid("parentId", formatID(parent.ID), "parent category must be a top-level category")
	}
	if c.ID != 0 {
		n, err := tx.CountChildren(ctx, c.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return invalid("parentId", formatID(parent.ID), "a category with children cannot have a parent category")
		}
	}
	return nil
}

// DeleteCategory hard-deletes category id. It fails with ErrConflict while
// the category has children or parts.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	var existing Category
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		if existing, err = tx.CategoryByID(ctx, id); err != nil {
			return err
		}
		if reason, err := undeletableReason(ctx, tx, id); err != nil {
			return err
		} else if reason != "" {
			return conflict("category %d is not deletable: %s", id, reason)
		}
		return tx.DeleteCategory(ctx, id)
	})
	if err != nil {
		return wrapStore("delete category", err)
	}

	logging.WithFields(ctx, "category_id", id).Info("category deleted")
	s.record(ctx, ActionCategoryDelete, "category", id, existing.Name, nil)
	return nil
}

// undeletableReason returns "" when id has no children and no parts.
func undeletableReason(ctx context.Context, st CategoryStore, id int64) (string, error) {
	children, err := st.CountChildren(ctx, id)
	if err != nil {
		return "", err
	}
	if children > 0 {
		return "has child categories", nil
	}
	parts, err := st.CountPartsInCategory(ctx, id)
	if err != nil {
		return "", err
	}
	if parts > 0 {
		return "has parts", nil
	}
	return "", nil
}

// IsCategoryDeletable reports whether category id exists and has no
// children and no parts.
func (s *Service) IsCategoryDeletable(ctx context.Context, id int64) (bool, error) {
	if _, err := s.store.CategoryByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, wrapStore("check category", err)
	}
	reason, err := undeletableReason(ctx, s.store, id)
	if err != nil {
		return false, wrapStore("check category", err)
	}
	return reason == "", nil
}

// IsCategoryNameExists reports whether another category uses name.
func (s *Service) IsCategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	exists, err := s.store.CategoryNameExists(ctx, name, excludeID)
	return exists, wrapStore("check category name", err)
}

// FindCategoryTree returns every top-level category with its children, in
// display order. It issues two queries: parents, then their children.
func (s *Service) FindCategoryTree(ctx context.Context) ([]CategoryNode, error) {
	parents, err := s.store.ParentCategories(ctx, false)
	if err != nil {
		return nil, wrapStore("category tree", err)
	}
	if len(parents) == 0 {
		return []CategoryNode{}, nil
	}

	ids := lo.Map(parents, func(c Category, _ int) int64 { return c.ID })
	children, err := s.store.ChildCategories(ctx, ids...)
	if err != nil {
		return nil, wrapStore("category tree", err)
	}
	byParent := lo.GroupBy(children, func(c Category) int64 { return *c.ParentID })

	return lo.Map(parents, func(p Category, _ int) CategoryNode {
		kids := byParent[p.ID]
		if kids == nil {
			kids = []Category{}
		}
		return CategoryNode{Category: p, Children: kids}
	}), nil
}

// FindCategory returns category id or an ErrNotFound error.
func (s *Service) FindCategory(ctx context.Context, id int64) (Category, error) {
	c, err := s.store.CategoryByID(ctx, id)
	return c, wrapStore("find category", err)
}

// AllCategories lists categories by display order, then name.
func (s *Service) AllCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	cs, err := s.store.AllCategories(ctx, activeOnly)
	return cs, wrapStore("list categories", err)
}

// ParentCategories lists top-level categories.
func (s *Service) ParentCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	cs, err := s.store.ParentCategories(ctx, activeOnly)
	return cs, wrapStore("list parent categories", err)
}

// ChildCategories lists the children of parentID.
func (s *Service) ChildCategories(ctx context.Context, parentID int64) ([]Category, error) {
	if _, err := s.store.CategoryByID(ctx, parentID); err != nil {
		return nil, wrapStore("list child categories", err)
	}
	cs, err := s.store.ChildCategories(ctx, parentID)
	return cs, wrapStore("list child categories", err)
}

// SearchCategories matches keyword against name and description.
// A blank keyword lists everything.
func (s *Service) SearchCategories(ctx context.Context, keyword string) ([]Category, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.AllCategories(ctx, false)
	}
	cs, err := s.store.SearchCategories(ctx, keyword)
	return cs, wrapStore("search categories", err)
}

// CategoryStatistics summarizes the hierarchy from live counts.
func (s *Service) CategoryStatistics(ctx context.Context) (*CategoryStatistics, error) {
	all, err := s.store.AllCategories(ctx, false)
	if err != nil {
		return nil, wrapStore("category statistics", err)
	}
	partCounts, err := s.store.CategoryPartCounts(ctx)
	if err != nil {
		return nil, wrapStore("category statistics", err)
	}

	childCounts := lo.CountValuesBy(
		lo.Filter(all, func(c Category, _ int) bool { return c.ParentID != nil }),
		func(c Category) int64 { return *c.ParentID },
	)

	st := &CategoryStatistics{TotalCategories: len(all)}
	for _, c := range all {
		if c.IsParent() {
			st.ParentCategories++
		} else {
			st.ChildCategories++
		}
		hasParts := partCounts[c.ID] > 0
		if hasParts {
			st.CategoriesWithParts++
		} else {
			st.CategoriesWithoutParts++
		}
		if !hasParts && childCounts[c.ID] == 0 {
			st.DeletableCategories++
		}
	}
	return st, nil
}
