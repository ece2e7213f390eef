package domain

type Attraction struct {
	Name    string `json:"name"`
	Desc    string `json:"desc"`
	Image   string `json:"image"`
	Summary string `json:"summary,omitempty"`
}

type District struct {
	Description string       `json:"description"`
	Attractions []Attraction `json:"attractions"`
}

// AttractionCatalog groups attractions by district name.
type AttractionCatalog map[string]*District
