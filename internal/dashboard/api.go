package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// envelope holds the fields every data service response may carry.
type envelope struct {
	Success *bool           `json:"success"`
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
}

// message picks the failure text: detail, then error, then fallback.
func (e *envelope) message(fallback string) string {
	var detail string
	if len(e.Detail) > 0 && json.Unmarshal(e.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

// decode validates resp and unmarshals it into out. requireSuccess demands
// an explicit success=true.
func decode(resp *Response, out any, requireSuccess bool) error {
	var env envelope
	envErr := json.Unmarshal(resp.Body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerRejectedError{
			Status:  resp.StatusCode,
			Message: env.message(fmt.Sprintf("request failed: %s", http.StatusText(resp.StatusCode))),
		}
	}
	if envErr != nil {
		return &ServerRejectedError{Status: resp.StatusCode, Message: "malformed response from server"}
	}
	if env.Success != nil && !*env.Success {
		return &ServerRejectedError{Status: resp.StatusCode, Message: env.message("request was not successful")}
	}
	if requireSuccess && env.Success == nil {
		return &ServerRejectedError{Status: resp.StatusCode, Message: "response is missing success flag"}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &ServerRejectedError{Status: resp.StatusCode, Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	return nil
}

func shapeError(resp *Response, field string) error {
	return &ServerRejectedError{Status: resp.StatusCode, Message: fmt.Sprintf("response is missing %s", field)}
}

// VehiclePage is one page of the vehicle list as returned by the service.
type VehiclePage struct {
	Vehicles   []*models.VehicleSummary
	Pagination models.Pagination
}

// Client is the typed data service API.
type Client struct {
	gw      *Gateway
	session *Session
}

// NewClient wraps a gateway with typed endpoint calls.
func NewClient(gw *Gateway, session *Session) *Client {
	return &Client{gw: gw, session: session}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// Login exchanges credentials for a token and begins the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	resp, err := c.gw.Public(ctx, http.MethodPost, "login", models.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}
	var out models.TokenResponse
	if err := decode(resp, &out, false); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return shapeError(resp, "access_token")
	}
	c.session.Begin(out.AccessToken, username)
	return nil
}

// Logout ends the session.
func (c *Client) Logout() {
	c.session.End()
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.UserResponse, error) {
	resp, err := c.gw.Do(ctx, "me", nil)
	if err != nil {
		return nil, err
	}
	var out models.UserResponse
	if err := decode(resp, &out, false); err != nil {
		return nil, err
	}
	if out.Username == "" {
		return nil, shapeError(resp, "username")
	}
	return &out, nil
}

// Statistics loads the counters for a range and store.
func (c *Client) Statistics(ctx context.Context, r DateRange, storeID string) (*models.Statistics, error) {
	query := r.Query()
	if storeID != "" {
		query.Set("store_id", storeID)
	}
	resp, err := c.gw.Do(ctx, "statistics", query)
	if err != nil {
		return nil, err
	}
	var out struct {
		Statistics *models.Statistics `json:"statistics"`
	}
	if err := decode(resp, &out, true); err != nil {
		return nil, err
	}
	if out.Statistics == nil {
		return nil, shapeError(resp, "statistics")
	}
	return out.Statistics, nil
}

// Vehicles loads one page of vehicles for the given query.
func (c *Client) Vehicles(ctx context.Context, query url.Values) (*VehiclePage, error) {
	resp, err := c.gw.Do(ctx, "vehicles", query)
	if err != nil {
		return nil, err
	}
	var out struct {
		Vehicles   []*models.VehicleSummary `json:"vehicles"`
		Pagination *models.Pagination       `json:"pagination"`
	}
	if err := decode(resp, &out, true); err != nil {
		return nil, err
	}
	if out.Vehicles == nil {
		return nil, shapeError(resp, "vehicles")
	}
	if out.Pagination == nil {
		return nil, shapeError(resp, "pagination")
	}
	return &VehiclePage{Vehicles: out.Vehicles, Pagination: *out.Pagination}, nil
}

// Vehicle loads the full record of one vehicle.
func (c *Client) Vehicle(ctx context.Context, id int) (*models.VehicleDetail, error) {
	resp, err := c.gw.Do(ctx, "vehicle/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Vehicle *models.VehicleDetail `json:"vehicle"`
	}
	if err := decode(resp, &out, true); err != nil {
		return nil, err
	}
	if out.Vehicle == nil || out.Vehicle.ID == 0 {
		return nil, shapeError(resp, "vehicle")
	}
	return out.Vehicle, nil
}

// DeleteVehicle removes a vehicle and returns the server's confirmation.
func (c *Client) DeleteVehicle(ctx context.Context, id int) (string, error) {
	resp, err := c.gw.Send(ctx, http.MethodDelete, "vehicle/"+strconv.Itoa(id), nil, nil)
	if err != nil {
		return "", err
	}
	var out models.DeleteVehicleResponse
	if err := decode(resp, &out, true); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Stores lists the stores the user may select.
func (c *Client) Stores(ctx context.Context) ([]*models.Store, error) {
	resp, err := c.gw.Do(ctx, "stores", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Stores []*models.Store `json:"stores"`
	}
	if err := decode(resp, &out, true); err != nil {
		return nil, err
	}
	if out.Stores == nil {
		return nil, shapeError(resp, "stores")
	}
	for _, s := range out.Stores {
		if s == nil || s.ID == "" {
			return nil, shapeError(resp, "store id")
		}
	}
	return out.Stores, nil
}

// RecentActivity loads the latest processing events.
func (c *Client) RecentActivity(ctx context.Context, limit int, storeID string) ([]*models.ActivityItem, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if storeID != "" {
		query.Set("store_id", storeID)
	}
	resp, err := c.gw.Do(ctx, "recent-activity", query)
	if err != nil {
		return nil, err
	}
	var out struct {
		Activity []*models.ActivityItem `json:"activity"`
	}
	if err := decode(resp, &out, true); err != nil {
		return nil, err
	}
	if out.Activity == nil {
		return nil, shapeError(resp, "activity")
	}
	return out.Activity, nil
}
