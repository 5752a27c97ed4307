package seo

import (
	"math"
	"strconv"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

// EducationalOrganization is the schema.org JSON-LD object of a school page.
type EducationalOrganization struct {
	Context         string           `json:"@context"`
	Type            string           `json:"@type"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Image           string           `json:"image"`
	Address         PostalAddress    `json:"address"`
	AggregateRating *AggregateRating `json:"aggregateRating,omitempty"`
	PriceRange      string           `json:"priceRange,omitempty"`
	Telephone       string           `json:"telephone,omitempty"`
	Email           string           `json:"email,omitempty"`
	URL             string           `json:"url"`
	FoundingDate    string           `json:"foundingDate,omitempty"`
}

type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	AddressCountry  string `json:"addressCountry"`
}

type AggregateRating struct {
	Type        string  `json:"@type"`
	RatingValue float64 `json:"ratingValue"`
	ReviewCount int     `json:"reviewCount"`
	BestRating  int     `json:"bestRating"`
	WorstRating int     `json:"worstRating"`
}

const defaultCountry = "IN"

// BuildStructuredData returns the JSON-LD object for a school. A nil school
// yields the organization entry of the site itself.
func BuildStructuredData(school *catalog.School, site Site) EducationalOrganization {
	if school == nil {
		return EducationalOrganization{
			Context:     "https://schema.org",
			Type:        "EducationalOrganization",
			Name:        site.Name,
			Description: truncate(site.Description, DescriptionLimit),
			Image:       site.DefaultImage,
			Address:     PostalAddress{Type: "PostalAddress", AddressCountry: defaultCountry},
			URL:         site.URL("/"),
		}
	}

	addr := PostalAddress{
		Type:            "PostalAddress",
		StreetAddress:   school.Address.Street,
		AddressLocality: school.Address.City,
		AddressRegion:   school.Address.Region,
		PostalCode:      school.Address.PostalCode,
		AddressCountry:  school.Address.Country,
	}
	if addr.AddressLocality == "" {
		addr.AddressLocality = school.Location
	}
	if addr.AddressCountry == "" {
		addr.AddressCountry = defaultCountry
	}

	url := school.Website
	if url == "" {
		url = site.URL(SchoolPath(school.Slug))
	}

	org := EducationalOrganization{
		Context:     "https://schema.org",
		Type:        "EducationalOrganization",
		Name:        school.Name,
		Description: truncate(describe(school), DescriptionLimit),
		Image:       primaryImage(school, site),
		Address:     addr,
		Telephone:   school.Phone,
		Email:       school.Email,
		URL:         url,
	}
	if school.FeeMin > 0 {
		org.PriceRange = school.FeeLabel()
	}
	if school.Established > 0 {
		org.FoundingDate = strconv.Itoa(school.Established)
	}
	if school.ReviewCount > 0 && school.Rating > 0 {
		org.AggregateRating = &AggregateRating{
			Type:        "AggregateRating",
			RatingValue: math.Round(school.Rating*10) / 10,
			ReviewCount: school.ReviewCount,
			BestRating:  5,
			WorstRating: 1,
		}
	}
	return org
}
