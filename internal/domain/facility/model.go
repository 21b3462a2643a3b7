package facility

// Facility is one health facility in the registry. Code is the short MOH
// identifier, e.g. KH-001.
type Facility struct {
	Name     string `db:"name" json:"name"`
	Code     string `db:"code" json:"code"`
	District string `db:"district" json:"district"`
}

// District groups facilities for the district-scoped role.
type District struct {
	Name     string `db:"name" json:"name"`
	Province string `db:"province" json:"province"`
}
