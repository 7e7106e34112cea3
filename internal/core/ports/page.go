package ports

import "github.com/zhguchie-tours/frontend/internal/core/domain/page"

// PageController holds the navigation state of the front-end, one active
// page per visitor.
type PageController interface {
	Pages() []page.Page
	Current(visitor string) page.ViewState
	SwitchPage(visitor string, id page.ID) (page.ViewState, error)
}
