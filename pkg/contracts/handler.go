package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP surface mounted by pkg/app.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
