package domain

// CategoryGroup buckets category codes into the families the engine has
// dedicated ordering rules for.
type CategoryGroup string

const (
	GroupBeer    CategoryGroup = "beer"
	GroupSoju    CategoryGroup = "soju"
	GroupTobacco CategoryGroup = "tobacco"
	GroupFresh   CategoryGroup = "fresh"
	GroupGeneral CategoryGroup = "general"
)

// categoryGroups maps collector category codes to their group. Codes not
// listed here fall back to the general group.
var categoryGroups = map[string]CategoryGroup{
	"BR01": GroupBeer,
	"BR02": GroupBeer,
	"SJ01": GroupSoju,
	"SJ02": GroupSoju,
	"TB01": GroupTobacco,
	"FF01": GroupFresh, // lunch boxes / kimbap
	"FF02": GroupFresh, // sandwiches
	"DY01": GroupFresh, // dairy
	"BK01": GroupFresh, // bakery
}

// CategoryCodes lists the collector codes mapped to a group. Returns nil for
// the general group, which is defined by exclusion.
func CategoryCodes(group CategoryGroup) []string {
	var codes []string
	for code, g := range categoryGroups {
		if g == group {
			codes = append(codes, code)
		}
	}
	return codes
}

// GroupForCategory resolves a collector category code to its rule group.
func GroupForCategory(code string) CategoryGroup {
	if g, ok := categoryGroups[code]; ok {
		return g
	}
	return GroupGeneral
}

// Perishable reports whether the group carries a disuse-rate discount and is
// subject to the daily item-count cap.
func (g CategoryGroup) Perishable() bool {
	return g == GroupFresh
}

// Alcohol reports whether the group uses the stock-cover order suppression
// rule shared by beer and soju.
func (g CategoryGroup) Alcohol() bool {
	return g == GroupBeer || g == GroupSoju
}

// ShelfLifeGroup buckets expiration-day ranges that drive safety-stock days.
type ShelfLifeGroup string

const (
	ShelfUltraShort ShelfLifeGroup = "ultra_short" // <= 3 days
	ShelfShort      ShelfLifeGroup = "short"       // 4-7 days
	ShelfMedium     ShelfLifeGroup = "medium"      // 8-30 days
	ShelfLong       ShelfLifeGroup = "long"        // 31-90 days
	ShelfVeryLong   ShelfLifeGroup = "very_long"   // 91+ days
)

// ShelfLifeGroupFor buckets a shelf life in days. Non-positive values (the
// collector reports 0 for non-perishables) land in the very-long group.
func ShelfLifeGroupFor(days int) ShelfLifeGroup {
	switch {
	case days <= 0:
		return ShelfVeryLong
	case days <= 3:
		return ShelfUltraShort
	case days <= 7:
		return ShelfShort
	case days <= 30:
		return ShelfMedium
	case days <= 90:
		return ShelfLong
	default:
		return ShelfVeryLong
	}
}

// ShortShelfLife reports whether the group falls under the per-day ordered
// item-count cap.
func (g ShelfLifeGroup) ShortShelfLife() bool {
	return g == ShelfUltraShort || g == ShelfShort
}
