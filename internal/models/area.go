package models

// Area identifies one of the four fixed life-tracking categories.
type Area string

const (
	AreaTech     Area = "tech"
	AreaPersonal Area = "personal"
	AreaBusiness Area = "business"
	AreaSocial   Area = "social"
)

// AreaInfo holds the static display configuration for an area.
type AreaInfo struct {
	ID          Area   `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// areaOrder fixes the declaration order used everywhere an ordered
// walk over areas is required (insights, chart datasets, defaults).
var areaOrder = [4]Area{AreaTech, AreaPersonal, AreaBusiness, AreaSocial}

// areaInfo is a compile-time mapping; there is no dynamic lookup that
// can miss, every Area constant has an entry.
var areaInfo = map[Area]AreaInfo{
	AreaTech: {
		ID:          AreaTech,
		Name:        "Technology & Scientific Knowledge",
		Color:       "#0A84FF",
		Icon:        "cpu",
		Description: "Track your growth in technical skills and scientific understanding.",
	},
	AreaPersonal: {
		ID:          AreaPersonal,
		Name:        "Personal Growth",
		Color:       "#30D158",
		Icon:        "heart",
		Description: "Monitor your personal development, wellbeing, and mindfulness.",
	},
	AreaBusiness: {
		ID:          AreaBusiness,
		Name:        "Business & Finance",
		Color:       "#FF9F0A",
		Icon:        "briefcase",
		Description: "Evaluate your professional progress and financial literacy.",
	},
	AreaSocial: {
		ID:          AreaSocial,
		Name:        "Intimate & Social Relationships",
		Color:       "#FF375F",
		Icon:        "users",
		Description: "Assess the quality of your relationships and social connections.",
	},
}

// Areas returns the four areas in fixed declaration order.
func Areas() []Area {
	return areaOrder[:]
}

// AreaInfos returns the display configuration for all areas in order.
func AreaInfos() []AreaInfo {
	infos := make([]AreaInfo, 0, len(areaOrder))
	for _, a := range areaOrder {
		infos = append(infos, areaInfo[a])
	}
	return infos
}

// Info returns the display configuration for the area.
// Only meaningful for valid areas; invalid areas yield a zero value.
func (a Area) Info() AreaInfo {
	return areaInfo[a]
}

// Valid reports whether the area is one of the four fixed identifiers.
func (a Area) Valid() bool {
	_, ok := areaInfo[a]
	return ok
}
