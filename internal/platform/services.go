package platform

import (
	"reservo/internal/bookings/conflict"
	bookingsservice "reservo/internal/bookings/service"
	"reservo/internal/bookings/suggest"
	bookingsvalidator "reservo/internal/bookings/validator"
	"reservo/internal/events"
	keysservice "reservo/internal/keys/service"
	keysvalidator "reservo/internal/keys/validator"
	resourcesservice "reservo/internal/resources/service"
	resourcesvalidator "reservo/internal/resources/validator"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	"reservo/pkg/lock"
)

type Services struct {
	Bookings  bookingsservice.BookingService
	Resources resourcesservice.ResourceService
	Keys      keysservice.KeyService
}

func NewServices(cfg *config.Config, stores Stores, locker lock.Locker, publisher events.Publisher, clk clock.Clock) Services {
	detector := conflict.NewDetector(stores.Bookings, stores.Resources, stores.Issues, stores.Timetable)
	suggester := suggest.NewEngine(detector, stores.Resources, stores.Issues, stores.Bookings, clk, suggest.Options{
		Window:       cfg.SuggestionWindow,
		Step:         cfg.SuggestionStep,
		MaxSlots:     cfg.SuggestionMaxSlots,
		MaxResources: cfg.SuggestionMaxResources,
	}, cfg.Log.Component("suggest"))

	return Services{
		Bookings: bookingsservice.NewBookingService(
			stores.Bookings,
			detector,
			suggester,
			locker,
			publisher,
			bookingsvalidator.NewBookingValidator(cfg.Log),
			clk,
			cfg,
		),
		Resources: resourcesservice.NewResourceService(
			stores.Resources,
			stores.Issues,
			stores.Timetable,
			locker,
			resourcesvalidator.NewResourceValidator(cfg.Log),
			clk,
			cfg,
		),
		Keys: keysservice.NewKeyService(
			stores.Keys,
			stores.Bookings,
			stores.Resources,
			locker,
			publisher,
			keysvalidator.NewKeyValidator(cfg.Log),
			clk,
			cfg,
		),
	}
}
