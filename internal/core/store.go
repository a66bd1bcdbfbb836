package core

import "context"

// PartStore persists parts. Read methods fill Part.CategoryName and
// Part.ParentCategoryName. Lookups of missing rows return an error wrapping
// ErrNotFound; unique index violations wrap ErrConflict.
type PartStore interface {
	PartByID(ctx context.Context, id int64) (Part, error)
	PartByNumber(ctx context.Context, partNumber string) (Part, error)
	// PartNumberExists is an exact, case-sensitive match. excludeID 0 excludes nothing.
	PartNumberExists(ctx context.Context, partNumber string, excludeID int64) (bool, error)

	// ListParts is the unfiltered paginated listing.
	ListParts(ctx context.Context, page PageRequest) ([]Part, int64, error)
	// AllParts returns every part in natural (id) order.
	AllParts(ctx context.Context) ([]Part, error)
	// SearchParts applies every predicate of f, then sorts and paginates.
	SearchParts(ctx context.Context, f PartFilter, page PageRequest) ([]Part, int64, error)
	// FilterParts returns all matches of f in natural order.
	FilterParts(ctx context.Context, f PartFilter) ([]Part, error)
	CountParts(ctx context.Context, f PartFilter) (int64, error)
	AggregateParts(ctx context.Context, f PartFilter) (PartAggregates, error)
	// KeywordParts matches keyword against part number, name and manufacturer.
	KeywordParts(ctx context.Context, keyword string, page PageRequest) ([]Part, int64, error)

	InsertPart(ctx context.Context, p Part) (Part, error)
	UpdatePart(ctx context.Context, p Part) (Part, error)
	DeletePart(ctx context.Context, id int64) error
}

// CategoryStore persists categories. Lists are ordered by display order, then name.
type CategoryStore interface {
	CategoryByID(ctx context.Context, id int64) (Category, error)
	AllCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	ParentCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	ChildCategories(ctx context.Context, parentIDs ...int64) ([]Category, error)
	SearchCategories(ctx context.Context, keyword string) ([]Category, error)
	CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	CountChildren(ctx context.Context, id int64) (int64, error)
	CountPartsInCategory(ctx context.Context, id int64) (int64, error)
	// CategoryPartCounts maps category id to the number of parts referencing it.
	CategoryPartCounts(ctx context.Context) (map[int64]int64, error)

	InsertCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// UserStore persists user accounts.
type UserStore interface {
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
	CountUsersByRole(ctx context.Context, role Role) (int64, error)

	InsertUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AuditStore appends and lists audit entries.
type AuditStore interface {
	InsertAudit(ctx context.Context, e AuditEntry) error
	// ListAudit returns entries newest first plus the total count.
	ListAudit(ctx context.Context, limit, offset int) ([]AuditEntry, int64, error)
}

// Store is the full persistence boundary.
type Store interface {
	PartStore
	CategoryStore
	UserStore
	AuditStore

	// InTx runs fn against a transactional view of the store. fn's error
	// rolls the transaction back where the backend supports it.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
