package core

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/shopspring/decimal"
)

// MaxPrice is the largest storable price, NUMERIC(10,2).
var MaxPrice = decimal.RequireFromString("99999999.99")

// RegisterPart validates in and stores it as a new part. A part number
// already in use fails with ErrConflict.
//
// The duplicate check and the insert run in one transaction but are still
// check-then-act; the store's unique index catches what slips through.
func (s *Service) RegisterPart(ctx context.Context, in PartInput) (Part, error) {
	saved, err := s.registerPart(ctx, in)
	if err != nil {
		return Part{}, err
	}

	logging.WithFields(ctx, "part_id", saved.ID, "part_number", saved.PartNumber).Info("part registered")
	s.record(ctx, ActionPartCreate, "part", saved.ID, saved.PartNumber, nil)
	return saved, nil
}

// registerPart is RegisterPart without logging or audit. The CSV import
// records one audit entry for the whole run instead of one per row.
func (s *Service) registerPart(ctx context.Context, in PartInput) (Part, error) {
	p, err := normalizePart(in)
	if err != nil {
		return Part{}, err
	}

	var saved Part
	err = s.store.InTx(ctx, func(tx Store) error {
		if err := checkCategoryRef(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		exists, err := tx.PartNumberExists(ctx, p.PartNumber, 0)
		if err != nil {
			return err
		}
		if exists {
			return conflict("part number already exists: %s", p.PartNumber)
		}

		now := s.now()
		p.CreatedAt, p.UpdatedAt = now, now
		saved, err = tx.InsertPart(ctx, p)
		return err
	})
	if err != nil {
		return Part{}, wrapStore("register part", err)
	}
	return saved, nil
}

// UpdatePart overwrites the editable fields of part id. Identity and
// CreatedAt are preserved.
func (s *Service) UpdatePart(ctx context.Context, id int64, in PartInput) (Part, error) {
	p, err := normalizePart(in)
	if err != nil {
		return Part{}, err
	}

	var before, saved Part
	err = s.store.InTx(ctx, func(tx Store) error {
		var err error
		before, err = tx.PartByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkCategoryRef(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		exists, err := tx.PartNumberExists(ctx, p.PartNumber, id)
		if err != nil {
			return err
		}
		if exists {
			return conflict("part number already exists: %s", p.PartNumber)
		}

		p.ID = id
		p.CreatedAt = before.CreatedAt
		p.UpdatedAt = s.now()
		saved, err = tx.UpdatePart(ctx, p)
		return err
	})
	if err != nil {
		return Part{}, wrapStore("update part", err)
	}

	logging.WithFields(ctx, "part_id", id).Info("part updated")
	s.record(ctx, ActionPartUpdate, "part", id, saved.PartNumber, partChanges(before, saved))
	return saved, nil
}

// DeletePart hard-deletes part id. Parts are leaves; nothing references them.
func (s *Service) DeletePart(ctx context.Context, id int64) error {
	var existing Part
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		if existing, err = tx.PartByID(ctx, id); err != nil {
			return err
		}
		return tx.DeletePart(ctx, id)
	})
	if err != nil {
		return wrapStore("delete part", err)
	}

	logging.WithFields(ctx, "part_id", id).Info("part deleted")
	s.record(ctx, ActionPartDelete, "part", id, existing.PartNumber, nil)
	return nil
}

// FindPart returns part id or an ErrNotFound error.
func (s *Service) FindPart(ctx context.Context, id int64) (Part, error) {
	p, err := s.store.PartByID(ctx, id)
	return p, wrapStore("find part", err)
}

// FindPartByNumber looks up a part by its exact part number.
func (s *Service) FindPartByNumber(ctx context.Context, partNumber string) (Part, error) {
	p, err := s.store.PartByNumber(ctx, strings.TrimSpace(partNumber))
	return p, wrapStore("find part by number", err)
}

// AllParts returns every part in natural order.
func (s *Service) AllParts(ctx context.Context) ([]Part, error) {
	parts, err := s.store.AllParts(ctx)
	return parts, wrapStore("list all parts", err)
}

// CountParts returns the total number of parts.
func (s *Service) CountParts(ctx context.Context) (int64, error) {
	n, err := s.store.CountParts(ctx, PartFilter{})
	return n, wrapStore("count parts", err)
}

// ListParts pages through parts, newest update first. A non-blank keyword
// matches part number, name or manufacturer.
func (s *Service) ListParts(ctx context.Context, keyword string, page, size int) (*SearchResult, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = s.pageSize
	}
	req := PageRequest{Sort: SortUpdatedAt, Order: SortDesc, Page: page, Size: size}

	var (
		parts []Part
		total int64
		err   error
	)
	if kw := strings.TrimSpace(keyword); kw != "" {
		parts, total, err = s.store.KeywordParts(ctx, kw, req)
	} else {
		parts, total, err = s.store.ListParts(ctx, req)
	}
	if err != nil {
		return nil, wrapStore("list parts", err)
	}
	return newSearchResult(parts, total, req), nil
}

// IsPartNumberDuplicated reports whether another part already uses
// partNumber. The match is exact and case-sensitive; excludeID 0 excludes
// nothing. A blank number is never a duplicate.
func (s *Service) IsPartNumberDuplicated(ctx context.Context, partNumber string, excludeID int64) (bool, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return false, nil
	}
	exists, err := s.store.PartNumberExists(ctx, partNumber, excludeID)
	return exists, wrapStore("check part number", err)
}

// normalizePart trims in and checks it, stopping at the first violation.
func normalizePart(in PartInput) (Part, error) {
	p := Part{
		PartNumber:   strings.TrimSpace(in.PartNumber),
		PartName:     strings.TrimSpace(in.PartName),
		Manufacturer: strings.TrimSpace(in.Manufacturer),
		Description:  strings.TrimSpace(in.Description),
		CategoryID:   in.CategoryID,
	}

	if p.PartNumber == "" {
		return Part{}, invalid("partNumber", "", "part number is required")
	}
	if p.PartName == "" {
		return Part{}, invalid("partName", "", "part name is required")
	}
	if in.Price == nil {
		return Part{}, invalid("price", "", "price is required")
	}
	if err := checkPrice(*in.Price); err != nil {
		return Part{}, err
	}
	p.Price = *in.Price

	err := firstError(
		checkLength("partNumber", p.PartNumber, maxPartNumberLen),
		checkLength("partName", p.PartName, maxPartNameLen),
		checkLength("manufacturer", p.Manufacturer, maxManufacturerLen),
		checkLength("description", p.Description, maxPartDescriptionLen),
	)
	if err != nil {
		return Part{}, err
	}
	return p, nil
}

func checkPrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return invalid("price", price.String(), "price must be 0 or more")
	case price.GreaterThan(MaxPrice):
		return invalid("price", price.String(), "price must not exceed "+MaxPrice.StringFixed(2))
	case !price.Equal(price.Round(2)):
		return invalid("price", price.String(), "price must have at most 2 decimal places")
	}
	return nil
}

// checkCategoryRef fails with a validation error when id names no category.
func checkCategoryRef(ctx context.Context, tx Store, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := tx.CategoryByID(ctx, *id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid("categoryId", formatID(*id), "category not found")
		}
		return err
	}
	return nil
}

// partChanges lists edited fields as field -> [old, new] for the audit trail.
func partChanges(before, after Part) map[string]any {
	changes := map[string]any{}
	diff := func(field, o, n string) {
		if o != n {
			changes[field] = []string{o, n}
		}
	}
	diff("partNumber", before.PartNumber, after.PartNumber)
	diff("partName", before.PartName, after.PartName)
	diff("price", before.Price.StringFixed(2), after.Price.StringFixed(2))
	diff("manufacturer", before.Manufacturer, after.Manufacturer)
	diff("description", before.Description, after.Description)
	diff("categoryId", formatOptionalID(before.CategoryID), formatOptionalID(after.CategoryID))
	if len(changes) == 0 {
		return nil
	}
	return changes
}
