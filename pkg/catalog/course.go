// Package catalog defines the course records returned by the Universitaly
// course search API.
package catalog

// DegreeType is the structured degree descriptor attached to a course.
type DegreeType struct {
	// DescriptionEn is the English localized description, e.g. "EN Magistrale".
	DescriptionEn string `json:"descrizioneEn"`
}

// Course is a single entry of the course search results.
// Only the fields the explorer consumes are decoded; all values are free-form
// strings supplied by the remote catalog and are not validated.
type Course struct {
	ID         int         `json:"id"`
	NameEn     string      `json:"nomeCorsoEn"`
	University string      `json:"nomeStruttura"`
	Language   string      `json:"lingua"`
	Degree     *DegreeType `json:"tipoLaurea"`
}

// DegreeDescription returns the English degree description or "" when the
// course carries no degree descriptor.
func (c Course) DegreeDescription() string {
	if c.Degree == nil {
		return ""
	}
	return c.Degree.DescriptionEn
}

// SearchResponse is the body of one page of search results.
// A page without a "corsi" field decodes to an empty page.
type SearchResponse struct {
	Courses []Course `json:"corsi"`
}
