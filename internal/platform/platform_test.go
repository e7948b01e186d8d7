package platform

import (
	"context"
	"testing"
	"time"

	"reservo/internal/events"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPublisher_LogsWhenKafkaDisabled(t *testing.T) {
	cfg := config.Defaults(nil)

	pub, closeFn, err := OpenPublisher(cfg)
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer closeFn()

	assert.IsType(t, &events.LogPublisher{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), events.New(model.EventBookingCreated, "u1", time.Now())))
}

func TestMemoryBackendsServeBookings(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults(nil)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFake(day)

	pub, closeFn, err := OpenPublisher(cfg)
	require.NoError(t, err)
	defer closeFn()
	svc := NewServices(cfg, OpenStores(cfg), OpenLocker(cfg), pub, clk)

	admin := model.Requester{UserID: "admin-1", IsAdmin: true}
	require.NoError(t, svc.Resources.Create(ctx, &model.Resource{
		ID:       "room-1",
		Name:     "Room one",
		Category: "meeting",
		Capacity: 1,
	}, admin))

	b, err := svc.Bookings.CreateBooking(ctx, &model.BookingRequest{
		ResourceID: "room-1",
		StartTime:  day.Add(10 * time.Hour),
		EndTime:    day.Add(11 * time.Hour),
	}, model.Requester{UserID: "u1"})
	require.NoError(t, err)

	got, err := svc.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "room-1", got.ResourceID)
	assert.Equal(t, "u1", got.UserID)
}
