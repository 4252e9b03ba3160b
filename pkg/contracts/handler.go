package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every domain handler so the application
// bootstrap can mount them on a shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
