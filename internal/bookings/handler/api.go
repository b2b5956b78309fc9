package handler

import "github.com/julienschmidt/httprouter"

// API groups the bookings service's HTTP surface behind one route registrar.
type API struct {
	bookings     *BookingHandler
	availability *AvailabilityHandler
}

func NewAPI(bookings *BookingHandler, availability *AvailabilityHandler) *API {
	return &API{
		bookings:     bookings,
		availability: availability,
	}
}

func (a *API) RegisterRoutes(router *httprouter.Router) {
	a.bookings.RegisterRoutes(router)
	a.availability.RegisterRoutes(router)
}
