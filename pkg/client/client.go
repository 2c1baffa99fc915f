// Package client is a Go client for the bloodbank HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"bloodbank/pkg/domain"
)

// Person is the body sent when registering a donor or a recipient. Dates are
// YYYY-MM-DD.
type Person struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FatherName  string `json:"father_name,omitempty"`
	MotherName  string `json:"mother_name,omitempty"`
	DateOfBirth string `json:"date_of_birth"`
	MobileNo    string `json:"mobile_no"`
	Gender      string `json:"gender,omitempty"`
	Email       string `json:"email,omitempty"`
	City        string `json:"city,omitempty"`
	Address     string `json:"address,omitempty"`
	BloodGroup  string `json:"blood_group"`
	Reason      string `json:"reason,omitempty"`
}

// Donation is the answer to AddDonor.
type Donation struct {
	Donor        domain.Donor      `json:"donor"`
	Unit         domain.BloodUnit  `json:"unit"`
	AutoIssuedTo *domain.Recipient `json:"auto_issued_to,omitempty"`
	Persisted    bool              `json:"persisted"`
}

// Request is the answer to RequestUnit.
type Request struct {
	Outcome   domain.AllocationOutcome `json:"outcome"`
	Recipient domain.Recipient         `json:"recipient"`
	Unit      *domain.BloodUnit        `json:"unit,omitempty"`
	Persisted bool                     `json:"persisted"`
}

// Deletion is the answer to the delete calls.
type Deletion struct {
	RemovedUnits int  `json:"removed_units"`
	Persisted    bool `json:"persisted"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("bloodbank api: %d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("bloodbank api: %d %s", e.Status, e.Code)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// Client talks to one bloodbank server.
type Client struct {
	http *resty.Client
}

// New returns a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL+"/api/v1").
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	// Only GETs are retried.
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
			return false
		}
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	return &Client{http: c}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString()).
		SetError(&APIError{})
}

func do[T any](req *resty.Request, method, path string) (T, error) {
	var out T
	resp, err := req.SetResult(&out).Execute(method, path)
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.Status = resp.StatusCode()
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode())
		}
		return out, apiErr
	}
	return out, nil
}

// AddDonor records a donation.
func (c *Client) AddDonor(ctx context.Context, p Person) (Donation, error) {
	return do[Donation](c.request(ctx).SetBody(p), http.MethodPost, "/donors")
}

// RequestUnit registers a transfusion request.
func (c *Client) RequestUnit(ctx context.Context, p Person) (Request, error) {
	return do[Request](c.request(ctx).SetBody(p), http.MethodPost, "/recipients")
}

// DeleteDonor removes a donor and their units.
func (c *Client) DeleteDonor(ctx context.Context, id int) (Deletion, error) {
	return do[Deletion](c.request(ctx), http.MethodDelete, "/donors/"+strconv.Itoa(id))
}

// DeleteRecipient removes a recipient.
func (c *Client) DeleteRecipient(ctx context.Context, id int) (Deletion, error) {
	return do[Deletion](c.request(ctx), http.MethodDelete, "/recipients/"+strconv.Itoa(id))
}

// Stock returns in-stock unit counts per blood group.
func (c *Client) Stock(ctx context.Context) (map[string]int, error) {
	return do[map[string]int](c.request(ctx), http.MethodGet, "/stock")
}

// Shortage returns pending request counts per blood group.
func (c *Client) Shortage(ctx context.Context) (map[string]int, error) {
	return do[map[string]int](c.request(ctx), http.MethodGet, "/shortage")
}

// ExpiringUnits lists in-stock units close to expiry.
func (c *Client) ExpiringUnits(ctx context.Context) ([]domain.BloodUnit, error) {
	return do[[]domain.BloodUnit](c.request(ctx), http.MethodGet, "/units/expiring")
}

// Waiting lists pending recipients oldest first.
func (c *Client) Waiting(ctx context.Context) ([]domain.Recipient, error) {
	return do[[]domain.Recipient](c.request(ctx), http.MethodGet, "/recipients/waiting")
}

// Sweep marks expired units on the server and returns their ids.
func (c *Client) Sweep(ctx context.Context) ([]int, error) {
	out, err := do[struct {
		Swept []int `json:"swept"`
	}](c.request(ctx), http.MethodPost, "/admin/sweep")
	return out.Swept, err
}
