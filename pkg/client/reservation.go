package client

import (
	"context"
	"fmt"
	"net/url"

	"studiobook/pkg/model"
)

// ReservationClient calls the scheduler's HTTP API.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseURL, actor string) *ReservationClient {
	hc := NewHttpClient(baseURL)
	hc.Actor = actor
	return &ReservationClient{httpClient: hc}
}

func (c *ReservationClient) Availability(ctx context.Context, date string, durationMinutes int) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	if durationMinutes > 0 {
		q.Set("duration", fmt.Sprintf("%d", durationMinutes))
	}
	return c.httpClient.GET(ctx, "/api/v1/availability?"+q.Encode())
}

func (c *ReservationClient) GetConfig(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/availability/config")
}

func (c *ReservationClient) UpdateConfig(ctx context.Context, update model.AvailabilityConfigUpdate) (*Response, error) {
	return c.httpClient.PUT(ctx, "/api/v1/availability/config", update)
}

func (c *ReservationClient) Submit(ctx context.Context, req model.ReservationRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/reservations", req)
}

func (c *ReservationClient) SubmitIdempotent(ctx context.Context, req model.ReservationRequest, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/reservations", req, map[string]string{HeaderIdempotencyKey: key})
}

func (c *ReservationClient) CreateByAdmin(ctx context.Context, req model.ReservationRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/admin/reservations", req)
}

func (c *ReservationClient) CheckSlot(ctx context.Context, req model.SlotCheckRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/reservations/check", req)
}

func (c *ReservationClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/reservations/id/"+url.PathEscape(id))
}

func (c *ReservationClient) History(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/reservations/id/"+url.PathEscape(id)+"/history")
}

func (c *ReservationClient) Transition(ctx context.Context, id string, req model.TransitionRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/reservations/id/"+url.PathEscape(id)+"/transition", req)
}

func (c *ReservationClient) Reschedule(ctx context.Context, id string, req model.ScheduleRequest) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/reservations/id/"+url.PathEscape(id)+"/schedule", req)
}

func (c *ReservationClient) WaitForHealthy(ctx context.Context) error {
	return c.httpClient.WaitForHealthy(ctx, defaultHealthWait)
}
