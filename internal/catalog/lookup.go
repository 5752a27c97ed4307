package catalog

import "strings"

// All is the "no constraint" value shared by every lookup-backed filter.
const All = "All"

// Boards lists the examination boards offered as filter chips, All first.
var Boards = []string{All, "CBSE", "ICSE", "State Board", "IB", "IGCSE"}

// FeeBucket is a named half-open annual fee range [Min, Max). Max 0 means unbounded.
type FeeBucket struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Min   int64  `json:"min"`
	Max   int64  `json:"max,omitempty"`
}

// Contains reports whether fee falls inside the bucket.
func (b FeeBucket) Contains(fee int64) bool {
	if fee < b.Min {
		return false
	}
	return b.Max == 0 || fee < b.Max
}

var FeeBuckets = []FeeBucket{
	{ID: "all", Label: All},
	{ID: "under-50k", Label: "Under ₹50K", Min: 0, Max: 50000},
	{ID: "50k-1l", Label: "₹50K - ₹1L", Min: 50000, Max: 100000},
	{ID: "1l-2l", Label: "₹1L - ₹2L", Min: 100000, Max: 200000},
	{ID: "2l-3l", Label: "₹2L - ₹3L", Min: 200000, Max: 300000},
	{ID: "above-3l", Label: "Above ₹3L", Min: 300000},
}

// ClassLevel is one entry of the ordered class ladder.
type ClassLevel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var ClassLevels = []ClassLevel{
	{Key: "pre-nursery", Label: "Pre-Nursery"},
	{Key: "nursery", Label: "Nursery"},
	{Key: "lkg", Label: "LKG"},
	{Key: "ukg", Label: "UKG"},
	{Key: "1", Label: "Class 1"},
	{Key: "2", Label: "Class 2"},
	{Key: "3", Label: "Class 3"},
	{Key: "4", Label: "Class 4"},
	{Key: "5", Label: "Class 5"},
	{Key: "6", Label: "Class 6"},
	{Key: "7", Label: "Class 7"},
	{Key: "8", Label: "Class 8"},
	{Key: "9", Label: "Class 9"},
	{Key: "10", Label: "Class 10"},
	{Key: "11", Label: "Class 11"},
	{Key: "12", Label: "Class 12"},
}

// Amenity maps an amenity key to its display label and the icon key the UI renders.
type Amenity struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var Amenities = []Amenity{
	{Key: "library", Label: "Library", Icon: "book-open"},
	{Key: "smart-classes", Label: "Smart Classes", Icon: "monitor"},
	{Key: "sports", Label: "Sports Ground", Icon: "trophy"},
	{Key: "swimming", Label: "Swimming Pool", Icon: "waves"},
	{Key: "labs", Label: "Science Labs", Icon: "flask-conical"},
	{Key: "computer-lab", Label: "Computer Lab", Icon: "cpu"},
	{Key: "music", Label: "Music Room", Icon: "music"},
	{Key: "art", Label: "Art Studio", Icon: "palette"},
	{Key: "cafeteria", Label: "Cafeteria", Icon: "utensils"},
	{Key: "medical", Label: "Medical Room", Icon: "heart-pulse"},
	{Key: "cctv", Label: "CCTV Security", Icon: "shield"},
	{Key: "auditorium", Label: "Auditorium", Icon: "theater"},
}

// defaultIcon is rendered for amenity keys missing from the table.
const defaultIcon = "check-circle"

// IsAll reports whether v selects no constraint.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// CanonicalBoard returns the table spelling of a board name, matched case-insensitively.
func CanonicalBoard(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, b := range Boards {
		if strings.EqualFold(b, name) {
			return b, true
		}
	}
	return "", false
}

// FeeBucketByName looks a bucket up by id or label, case-insensitively.
func FeeBucketByName(name string) (FeeBucket, bool) {
	name = strings.TrimSpace(name)
	for _, b := range FeeBuckets {
		if strings.EqualFold(b.ID, name) || strings.EqualFold(b.Label, name) {
			return b, true
		}
	}
	return FeeBucket{}, false
}

// ClassLevelByName looks a level up by key or label, case-insensitively.
func ClassLevelByName(name string) (ClassLevel, bool) {
	if i := classIndex(name); i >= 0 {
		return ClassLevels[i], true
	}
	return ClassLevel{}, false
}

func classIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, l := range ClassLevels {
		if strings.EqualFold(l.Key, name) || strings.EqualFold(l.Label, name) {
			return i
		}
	}
	return -1
}

// AmenityIcon returns the icon key for an amenity, or a generic icon.
func AmenityIcon(key string) string {
	for _, a := range Amenities {
		if a.Key == key {
			return a.Icon
		}
	}
	return defaultIcon
}

// DescribeAmenities resolves a school's amenity keys to label and icon, in
// order. Unknown keys keep the key as label and get the generic icon.
func DescribeAmenities(keys []string) []Amenity {
	out := make([]Amenity, 0, len(keys))
	for _, k := range keys {
		out = append(out, Amenity{Key: k, Label: AmenityLabel(k), Icon: AmenityIcon(k)})
	}
	return out
}

// AmenityLabel returns the display label, falling back to the raw key.
func AmenityLabel(key string) string {
	for _, a := range Amenities {
		if a.Key == key {
			return a.Label
		}
	}
	return key
}
