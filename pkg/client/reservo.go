package client

import (
	"context"
	"net/url"
	"time"
)

// ReservoClient wraps the HTTP API of the bookings service.
type ReservoClient struct {
	*HttpClient
}

func NewReservoClient(baseURL string) *ReservoClient {
	return &ReservoClient{HttpClient: NewHttpClient(baseURL)}
}

func (c *ReservoClient) As(userID, role string) *ReservoClient {
	return &ReservoClient{HttpClient: c.HttpClient.As(userID, role)}
}

func (c *ReservoClient) CreateResource(ctx context.Context, body any) (*Response, error) {
	return c.POST(ctx, "/api/v1/resources", body)
}

func (c *ReservoClient) CheckAvailability(ctx context.Context, body any) (*Response, error) {
	return c.POST(ctx, "/api/v1/availability", body)
}

func (c *ReservoClient) CreateBooking(ctx context.Context, body any) (*Response, error) {
	return c.POST(ctx, "/api/v1/bookings", body)
}

func (c *ReservoClient) GetBooking(ctx context.Context, id string) (*Response, error) {
	return c.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *ReservoClient) SearchBookings(ctx context.Context, resourceID string, from, to time.Time) (*Response, error) {
	q := url.Values{}
	q.Set("resource_id", resourceID)
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	return c.GET(ctx, "/api/v1/bookings/search?"+q.Encode())
}

func (c *ReservoClient) BookingAction(ctx context.Context, id, action string, body any) (*Response, error) {
	return c.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/"+action, body)
}

func (c *ReservoClient) CheckOutKey(ctx context.Context, keyID string, body any) (*Response, error) {
	return c.POST(ctx, "/api/v1/keys/"+url.PathEscape(keyID)+"/checkout", body)
}

func (c *ReservoClient) CheckInKey(ctx context.Context, transactionID string) (*Response, error) {
	return c.POST(ctx, "/api/v1/key-transactions/id/"+url.PathEscape(transactionID)+"/checkin", map[string]any{})
}

func (c *ReservoClient) GetKeyTransaction(ctx context.Context, transactionID string) (*Response, error) {
	return c.GET(ctx, "/api/v1/key-transactions/id/"+url.PathEscape(transactionID))
}

func (c *ReservoClient) ListOverdueKeys(ctx context.Context) (*Response, error) {
	return c.GET(ctx, "/api/v1/key-transactions/overdue")
}

func (c *ReservoClient) ReportIssue(ctx context.Context, resourceID string, body any) (*Response, error) {
	return c.POST(ctx, "/api/v1/resources/id/"+url.PathEscape(resourceID)+"/issues", body)
}

func (c *ReservoClient) UpdateIssueStatus(ctx context.Context, issueID, status string) (*Response, error) {
	return c.POST(ctx, "/api/v1/issues/id/"+url.PathEscape(issueID)+"/status", map[string]string{"status": status})
}

func (c *ReservoClient) UpsertTimetableEntry(ctx context.Context, body any) (*Response, error) {
	return c.PUT(ctx, "/api/v1/timetable", body)
}
