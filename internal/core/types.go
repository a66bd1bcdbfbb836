package core

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is shown for parts without a category.
const UncategorizedLabel = "Uncategorized"

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin Role = "ROLE_ADMIN"
	RoleUser  Role = "ROLE_USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Part is a single inventoried transmission component.
type Part struct {
	ID           int64           `json:"id"`
	PartNumber   string          `json:"partNumber"`
	PartName     string          `json:"partName"`
	Price        decimal.Decimal `json:"price"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Description  string          `json:"description,omitempty"`
	CategoryID   *int64          `json:"categoryId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// Read-only, filled by the store from the referenced category.
	CategoryName       string `json:"categoryName,omitempty"`
	ParentCategoryName string `json:"parentCategoryName,omitempty"`
}

// CategoryLabel returns the category name, or UncategorizedLabel.
func (p Part) CategoryLabel() string {
	if p.CategoryName == "" {
		return UncategorizedLabel
	}
	return p.CategoryName
}

// CategoryPath returns "Parent > Child" for child categories.
func (p Part) CategoryPath() string {
	if p.CategoryName == "" {
		return UncategorizedLabel
	}
	if p.ParentCategoryName == "" {
		return p.CategoryName
	}
	return p.ParentCategoryName + " > " + p.CategoryName
}

// MarshalJSON adds the display labels: categoryName falls back to
// UncategorizedLabel and categoryPath is always present.
func (p Part) MarshalJSON() ([]byte, error) {
	type plain Part
	return json.Marshal(struct {
		plain
		CategoryName string `json:"categoryName"`
		CategoryPath string `json:"categoryPath"`
	}{plain(p), p.CategoryLabel(), p.CategoryPath()})
}

// PartInput carries the caller-editable fields of a part.
type PartInput struct {
	PartNumber   string           `json:"partNumber"`
	PartName     string           `json:"partName"`
	Price        *decimal.Decimal `json:"price"`
	Manufacturer string           `json:"manufacturer"`
	Description  string           `json:"description"`
	CategoryID   *int64           `json:"categoryId"`
}

// Category is a node in the two-level category hierarchy.
// Relationships are id references only.
type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	IsActive     bool      `json:"isActive"`
	ParentID     *int64    `json:"parentId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Read-only, filled by the store.
	ParentName string `json:"parentName,omitempty"`
}

// IsParent reports whether c sits at the top level.
func (c Category) IsParent() bool {
	return c.ParentID == nil
}

// Level is 1 for parent categories and 2 for children.
func (c Category) Level() int {
	if c.IsParent() {
		return 1
	}
	return 2
}

// FullPath returns "Parent > Child" for children and the name for parents.
func (c Category) FullPath() string {
	if c.ParentName == "" {
		return c.Name
	}
	return c.ParentName + " > " + c.Name
}

// CategoryNode is a parent category with its ordered children.
type CategoryNode struct {
	Category
	Children []Category `json:"children"`
}

// CategoryStatistics summarizes the category hierarchy.
type CategoryStatistics struct {
	TotalCategories        int `json:"totalCategories"`
	ParentCategories       int `json:"parentCategories"`
	ChildCategories        int `json:"childCategories"`
	CategoriesWithParts    int `json:"categoriesWithParts"`
	CategoriesWithoutParts int `json:"categoriesWithoutParts"`
	DeletableCategories    int `json:"deletableCategories"`
}

// User is an account that can sign in.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Enabled      bool      `json:"enabled"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NamedCount is one bucket of an aggregate.
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// PartAggregates are counts over a set of parts.
type PartAggregates struct {
	ByCategory     []NamedCount `json:"byCategory"`
	ByManufacturer []NamedCount `json:"byManufacturer"`
	ByPriceRange   []NamedCount `json:"byPriceRange"`
}

// SearchResult is one page of parts plus paging metadata.
type SearchResult struct {
	Content     []Part          `json:"content"`
	TotalCount  int64           `json:"totalCount"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	PageSize    int             `json:"pageSize"`
	HasNext     bool            `json:"hasNext"`
	HasPrevious bool            `json:"hasPrevious"`
	Statistics  *PartAggregates `json:"statistics,omitempty"`
}

// newSearchResult derives paging metadata from the total count.
func newSearchResult(content []Part, total int64, page PageRequest) *SearchResult {
	if content == nil {
		content = []Part{}
	}
	totalPages := 0
	if page.Size > 0 {
		totalPages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}
	return &SearchResult{
		Content:     content,
		TotalCount:  total,
		CurrentPage: page.Page,
		TotalPages:  totalPages,
		PageSize:    page.Size,
		HasNext:     page.Page >= 0 && page.Page < totalPages-1,
		HasPrevious: page.Page > 0,
	}
}

// Dashboard is the admin overview.
type Dashboard struct {
	TotalParts   int64              `json:"totalParts"`
	TotalUsers   int64              `json:"totalUsers"`
	AdminUsers   int64              `json:"adminUsers"`
	RegularUsers int64              `json:"regularUsers"`
	Categories   CategoryStatistics `json:"categories"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return formatID(*id)
}
