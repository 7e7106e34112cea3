package page

import "fmt"

// SiteName is appended to every document title.
const SiteName = "Жгучие туры"

// ID identifies a page of the single-page front-end.
type ID string

const (
	HotTours ID = "hot-tours"
	Search   ID = "search"
	Special  ID = "special"
	Profile  ID = "profile"
)

// DefaultID is the page shown on first load.
const DefaultID = HotTours

// Page is one switchable section of the site.
type Page struct {
	ID      ID     `json:"id"`
	Heading string `json:"heading"`
	Icon    string `json:"icon"`
}

// Title is the document title shown while the page is active.
func (p Page) Title() string {
	if p.Heading == "" {
		return SiteName
	}
	return fmt.Sprintf("%s - %s", p.Heading, SiteName)
}

// Catalog lists the pages in navigation order.
func Catalog() []Page {
	return []Page{
		{ID: HotTours, Heading: "Горящие туры", Icon: "/images/icon-hot.png"},
		{ID: Search, Heading: "Поиск туров", Icon: "/images/icon-search.png"},
		{ID: Special, Heading: "Спецпредложения", Icon: "/images/icon-special.png"},
		{ID: Profile, Heading: "Профиль", Icon: "/images/icon-profile.png"},
	}
}

// ViewState is what the navigation shell renders: the active page and the title.
type ViewState struct {
	Active ID     `json:"active"`
	Title  string `json:"title"`
	Pages  []Page `json:"pages"`
}
