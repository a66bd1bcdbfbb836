package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/logging"
)

// SearchParts runs an advanced search. Criteria with no filter take the
// unfiltered listing path; anything else goes through the predicate query.
// Invalid criteria fail with FieldErrors holding every problem.
func (s *Service) SearchParts(ctx context.Context, c Criteria) (*SearchResult, error) {
	if errs := c.Validate(); len(errs) > 0 {
		return nil, errs
	}
	c = c.withDefaults(s.pageSize)

	listing := c.IsEmpty()
	page := c.pageRequest(listing)

	var (
		parts []Part
		total int64
		err   error
	)
	if listing {
		parts, total, err = s.store.ListParts(ctx, page)
	} else {
		parts, total, err = s.store.SearchParts(ctx, c.PartFilter, page)
	}
	if err != nil {
		return nil, wrapStore("search parts", err)
	}
	path := "filtered"
	if listing {
		path = "listing"
	}
	searchTotal.WithLabelValues(path).Inc()

	result := newSearchResult(parts, total, page)

	aggs, err := s.store.AggregateParts(ctx, c.PartFilter)
	if err != nil {
		return nil, wrapStore("aggregate parts", err)
	}
	result.Statistics = &aggs

	logging.FromContext(ctx).Debug("part search",
		"path", path,
		"total", total,
		"page", page.Page,
		"size", page.Size,
	)
	return result, nil
}

// Search parses raw input and runs SearchParts. Parse and range errors are
// reported together.
func (s *Service) Search(ctx context.Context, in CriteriaInput) (*SearchResult, error) {
	c, errs := ValidateCriteria(in)
	if len(errs) > 0 {
		return nil, errs
	}
	return s.SearchParts(ctx, c)
}

// SearchStatistics describes a search without returning its rows.
type SearchStatistics struct {
	SearchTime     string            `json:"searchTime"`
	TotalResults   int64             `json:"totalResults"`
	SearchCriteria map[string]string `json:"searchCriteria"`
	IsEmpty        bool              `json:"isEmpty"`
	HasDateFilter  bool              `json:"hasDateFilter"`
	HasPriceFilter bool              `json:"hasPriceFilter"`
}

const searchTimeLayout = "2006-01-02 15:04:05"

// SearchStatistics counts the matches of c and echoes its non-empty fields.
// The count is a separate query and may differ from a search run just before.
func (s *Service) SearchStatistics(ctx context.Context, c Criteria) (*SearchStatistics, error) {
	if errs := c.Validate(); len(errs) > 0 {
		return nil, errs
	}
	total, err := s.store.CountParts(ctx, c.PartFilter)
	if err != nil {
		return nil, wrapStore("count parts", err)
	}
	return &SearchStatistics{
		SearchTime:     s.now().Format(searchTimeLayout),
		TotalResults:   total,
		SearchCriteria: CriteriaSummary(c.PartFilter),
		IsEmpty:        c.IsEmpty(),
		HasDateFilter:  c.HasDateFilter(),
		HasPriceFilter: c.HasPriceFilter(),
	}, nil
}

// CriteriaSummary echoes the present predicates of f, keyed by field name.
func CriteriaSummary(f PartFilter) map[string]string {
	out := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("partNumber", f.PartNumber)
	put("partName", f.PartName)
	put("manufacturer", f.Manufacturer)
	put("categoryName", f.CategoryName)
	if f.CategoryID != nil {
		out["categoryId"] = formatID(*f.CategoryID)
	}

	switch {
	case f.MinPrice != nil && f.MaxPrice != nil:
		out["priceRange"] = f.MinPrice.String() + " - " + f.MaxPrice.String()
	case f.MinPrice != nil:
		out["priceRange"] = f.MinPrice.String() + " or more"
	case f.MaxPrice != nil:
		out["priceRange"] = f.MaxPrice.String() + " or less"
	}

	put("createdRange", dateRangeSummary(f.CreatedAfter, f.CreatedBefore))
	put("updatedRange", dateRangeSummary(f.UpdatedAfter, f.UpdatedBefore))
	return out
}

func dateRangeSummary(after, before *time.Time) string {
	switch {
	case after != nil && before != nil:
		return after.Format(DateLayout) + " - " + before.Format(DateLayout)
	case after != nil:
		return after.Format(DateLayout) + " or later"
	case before != nil:
		return before.Format(DateLayout) + " or earlier"
	}
	return ""
}

// FilterParts returns every part matching f, unpaginated, in the store's
// natural order. Empty criteria return all parts.
func (s *Service) FilterParts(ctx context.Context, f PartFilter) ([]Part, error) {
	var (
		parts []Part
		err   error
	)
	if f.IsEmpty() {
		parts, err = s.store.AllParts(ctx)
	} else {
		parts, err = s.store.FilterParts(ctx, f)
	}
	if err != nil {
		return nil, wrapStore("filter parts", err)
	}
	return parts, nil
}
