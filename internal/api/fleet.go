package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/railops/railops/internal/models"
)

type trainsetListResponse struct {
	Trainsets []models.Trainset `json:"trainsets"`
}

// Trainsets lists the fleet, optionally filtered by status.
func (c *Client) Trainsets(ctx context.Context, status string) ([]models.Trainset, error) {
	path := "/trainsets"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp trainsetListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Trainsets, nil
}

func (c *Client) Trainset(ctx context.Context, id string) (*models.Trainset, error) {
	var ts models.Trainset
	if err := c.do(ctx, http.MethodGet, "/trainsets/"+url.PathEscape(id), nil, &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

type TrainsetInput struct {
	Code             string    `json:"code" validate:"required,min=2,max=20"`
	Status           string    `json:"status" validate:"required,oneof=in_service standby maintenance withdrawn"`
	Depot            string    `json:"depot" validate:"omitempty,max=80"`
	CurrentMileageKM float64   `json:"current_mileage_km" validate:"gte=0"`
	CommissionedAt   time.Time `json:"commissioned_at"`
}

func (c *Client) CreateTrainset(ctx context.Context, input TrainsetInput) (*models.Trainset, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var ts models.Trainset
	if err := c.do(ctx, http.MethodPost, "/trainsets", input, &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (c *Client) UpdateTrainset(ctx context.Context, id string, input TrainsetInput) (*models.Trainset, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var ts models.Trainset
	if err := c.do(ctx, http.MethodPut, "/trainsets/"+url.PathEscape(id), input, &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (c *Client) DeleteTrainset(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/trainsets/"+url.PathEscape(id), nil, nil)
}

type componentListResponse struct {
	Components []models.Component `json:"components"`
}

// Components lists components, optionally scoped to one trainset.
func (c *Client) Components(ctx context.Context, trainsetID string) ([]models.Component, error) {
	path := "/components"
	if trainsetID != "" {
		path += "?trainset_id=" + url.QueryEscape(trainsetID)
	}
	var resp componentListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Components, nil
}

func (c *Client) Component(ctx context.Context, id string) (*models.Component, error) {
	var comp models.Component
	if err := c.do(ctx, http.MethodGet, "/components/"+url.PathEscape(id), nil, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

type ComponentInput struct {
	TrainsetID  string    `json:"trainset_id" validate:"required"`
	Name        string    `json:"name" validate:"required,min=2,max=80"`
	SerialNo    string    `json:"serial_no" validate:"required"`
	Category    string    `json:"category" validate:"omitempty,max=40"`
	Status      string    `json:"status" validate:"required,oneof=healthy due_service failed"`
	InstalledAt time.Time `json:"installed_at"`
}

func (c *Client) CreateComponent(ctx context.Context, input ComponentInput) (*models.Component, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var comp models.Component
	if err := c.do(ctx, http.MethodPost, "/components", input, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

func (c *Client) UpdateComponent(ctx context.Context, id string, input ComponentInput) (*models.Component, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var comp models.Component
	if err := c.do(ctx, http.MethodPut, "/components/"+url.PathEscape(id), input, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

func (c *Client) DeleteComponent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/components/"+url.PathEscape(id), nil, nil)
}

type mileageListResponse struct {
	Logs []models.MileageLog `json:"logs"`
}

// MileageFilter narrows a mileage listing. Zero values mean no constraint;
// From and To bound the log date inclusively.
type MileageFilter struct {
	TrainsetID string
	From       time.Time
	To         time.Time
}

func (f MileageFilter) query() string {
	q := url.Values{}
	if f.TrainsetID != "" {
		q.Set("trainset_id", f.TrainsetID)
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(time.RFC3339))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// MileageLogs lists mileage entries matching the filter, newest first.
func (c *Client) MileageLogs(ctx context.Context, filter MileageFilter) ([]models.MileageLog, error) {
	var resp mileageListResponse
	if err := c.do(ctx, http.MethodGet, "/mileage"+filter.query(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

func (c *Client) MileageLog(ctx context.Context, id string) (*models.MileageLog, error) {
	var log models.MileageLog
	if err := c.do(ctx, http.MethodGet, "/mileage/"+url.PathEscape(id), nil, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

type MileageInput struct {
	TrainsetID string    `json:"trainset_id" validate:"required"`
	LogDate    time.Time `json:"log_date" validate:"required"`
	DistanceKM float64   `json:"distance_km" validate:"required,gte=0"`
	EnergyKWh  float64   `json:"energy_kwh" validate:"gte=0"`
	Notes      string    `json:"notes" validate:"omitempty,max=500"`
}

func (c *Client) CreateMileageLog(ctx context.Context, input MileageInput) (*models.MileageLog, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var log models.MileageLog
	if err := c.do(ctx, http.MethodPost, "/mileage", input, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// UpdateMileageLog corrects an existing entry. The trainset odometer is
// adjusted by the distance delta server-side.
func (c *Client) UpdateMileageLog(ctx context.Context, id string, input MileageInput) (*models.MileageLog, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var log models.MileageLog
	if err := c.do(ctx, http.MethodPut, "/mileage/"+url.PathEscape(id), input, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (c *Client) DeleteMileageLog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/mileage/"+url.PathEscape(id), nil, nil)
}
