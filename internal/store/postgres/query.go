package postgres

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

const partsFrom = "parts p" +
	" LEFT JOIN categories c ON c.id = p.category_id" +
	" LEFT JOIN categories pc ON pc.id = c.parent_id"

var partColumns = []string{
	"p.id",
	"p.part_number",
	"p.part_name",
	"p.price",
	"COALESCE(p.manufacturer, '')",
	"COALESCE(p.description, '')",
	"p.category_id",
	"p.created_at",
	"p.updated_at",
	"COALESCE(c.name, '')",
	"COALESCE(pc.name, '')",
}

// sortColumns maps canonical sort fields to ORDER BY expressions.
var sortColumns = map[core.SortField]string{
	core.SortPartNumber:   "p.part_number",
	core.SortPartName:     "p.part_name",
	core.SortManufacturer: "COALESCE(p.manufacturer, '')",
	core.SortPrice:        "p.price",
	core.SortCategoryName: "COALESCE(c.name, '')",
	core.SortCreatedAt:    "p.created_at",
	core.SortUpdatedAt:    "p.updated_at",
}

func selectParts(sb sq.StatementBuilderType) sq.SelectBuilder {
	return sb.Select(partColumns...).From(partsFrom)
}

// escapeLike escapes the LIKE metacharacters of s so it matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func contains(s string) string {
	return "%" + escapeLike(s) + "%"
}

// partPredicates turns every present field of f into one AND-ed predicate.
func partPredicates(f core.PartFilter) []sq.Sqlizer {
	var preds []sq.Sqlizer
	like := func(col, v string) {
		if v != "" {
			preds = append(preds, sq.ILike{col: contains(v)})
		}
	}
	like("p.part_number", f.PartNumber)
	like("p.part_name", f.PartName)
	like("p.manufacturer", f.Manufacturer)
	like("c.name", f.CategoryName)

	if f.CategoryID != nil {
		preds = append(preds, sq.Eq{"p.category_id": *f.CategoryID})
	}
	if f.MinPrice != nil {
		preds = append(preds, sq.GtOrEq{"p.price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		preds = append(preds, sq.LtOrEq{"p.price": *f.MaxPrice})
	}
	if f.CreatedAfter != nil {
		preds = append(preds, sq.GtOrEq{"p.created_at": *f.CreatedAfter})
	}
	if f.CreatedBefore != nil {
		preds = append(preds, sq.LtOrEq{"p.created_at": *f.CreatedBefore})
	}
	if f.UpdatedAfter != nil {
		preds = append(preds, sq.GtOrEq{"p.updated_at": *f.UpdatedAfter})
	}
	if f.UpdatedBefore != nil {
		preds = append(preds, sq.LtOrEq{"p.updated_at": *f.UpdatedBefore})
	}
	return preds
}

func wherePart(b sq.SelectBuilder, f core.PartFilter) sq.SelectBuilder {
	for _, p := range partPredicates(f) {
		b = b.Where(p)
	}
	return b
}

func keywordPredicate(keyword string) sq.Sqlizer {
	pattern := contains(keyword)
	return sq.Or{
		sq.ILike{"p.part_number": pattern},
		sq.ILike{"p.part_name": pattern},
		sq.ILike{"p.manufacturer": pattern},
	}
}

// orderAndPage applies the sort and page of req. Ties fall back to id.
func orderAndPage(b sq.SelectBuilder, req core.PageRequest) sq.SelectBuilder {
	col, ok := sortColumns[req.Sort]
	if !ok {
		col = sortColumns[core.SortUpdatedAt]
	}
	dir := "DESC"
	if req.Order == core.SortAsc {
		dir = "ASC"
	}
	b = b.OrderBy(col+" "+dir, "p.id ASC")
	if req.Size > 0 {
		b = b.Limit(uint64(req.Size)).Offset(uint64(req.Offset()))
	}
	return b
}

func countParts(sb sq.StatementBuilderType, f core.PartFilter) sq.SelectBuilder {
	return wherePart(sb.Select("COUNT(*)").From(partsFrom), f)
}

// aggregate queries group the filtered parts by one expression each.
func categoryAggregate(sb sq.StatementBuilderType, f core.PartFilter) sq.SelectBuilder {
	label := fmt.Sprintf("COALESCE(c.name, %s)", quoteLiteral(core.UncategorizedLabel))
	return groupCount(sb, label, f)
}

func manufacturerAggregate(sb sq.StatementBuilderType, f core.PartFilter) sq.SelectBuilder {
	return groupCount(sb, "COALESCE(NULLIF(TRIM(p.manufacturer), ''), 'Unknown')", f)
}

func priceAggregate(sb sq.StatementBuilderType, f core.PartFilter) sq.SelectBuilder {
	return groupCount(sb, priceBucketCase(), f)
}

func groupCount(sb sq.StatementBuilderType, expr string, f core.PartFilter) sq.SelectBuilder {
	b := sb.Select(expr+" AS bucket", "COUNT(*) AS n").From(partsFrom)
	return wherePart(b, f).GroupBy("bucket").OrderBy("n DESC", "bucket ASC")
}

// priceBucketCase renders core.PriceBuckets as a CASE over p.price. The
// bounds are integer constants, so they are inlined.
func priceBucketCase() string {
	var b strings.Builder
	b.WriteString("CASE")
	last := core.PriceBuckets[len(core.PriceBuckets)-1]
	for _, bucket := range core.PriceBuckets[:len(core.PriceBuckets)-1] {
		var conds []string
		if bucket.Min != nil {
			conds = append(conds, "p.price >= "+bucket.Min.String())
		}
		if bucket.Max != nil {
			conds = append(conds, "p.price < "+bucket.Max.String())
		}
		fmt.Fprintf(&b, " WHEN %s THEN %s", strings.Join(conds, " AND "), quoteLiteral(bucket.Label))
	}
	fmt.Fprintf(&b, " ELSE %s END", quoteLiteral(last.Label))
	return b.String()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

const categoriesFrom = "categories c LEFT JOIN categories pc ON pc.id = c.parent_id"

var categoryColumns = []string{
	"c.id",
	"c.name",
	"COALESCE(c.description, '')",
	"c.display_order",
	"c.is_active",
	"c.parent_id",
	"c.created_at",
	"c.updated_at",
	"COALESCE(pc.name, '')",
}

func selectCategories(sb sq.StatementBuilderType) sq.SelectBuilder {
	return sb.Select(categoryColumns...).From(categoriesFrom).OrderBy("c.display_order ASC", "c.name ASC", "c.id ASC")
}
