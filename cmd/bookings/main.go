package main

import (
	"context"

	bookingshandler "reservo/internal/bookings/handler"
	keyshandler "reservo/internal/keys/handler"
	"reservo/internal/platform"
	resourceshandler "reservo/internal/resources/handler"
	"reservo/pkg/app"
	"reservo/pkg/clock"
	"reservo/pkg/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")

	publisher, closePublisher, err := platform.OpenPublisher(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to configure event publisher", "error", err)
	}
	services := platform.NewServices(cfg, platform.OpenStores(cfg), platform.OpenLocker(cfg), publisher, clock.Real())
	cfg.Log.Info("Services initialized", "store_backend", cfg.StoreBackend, "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		bookingshandler.NewBookingHandler(services.Bookings, cfg.Log),
		resourceshandler.NewResourceHandler(services.Resources, cfg.Log),
		keyshandler.NewKeyHandler(services.Keys, cfg.Log),
	)
	serverApp.OnShutdown(func(context.Context) { closePublisher() })
	serverApp.Run()
}
