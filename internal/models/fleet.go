package models

import "time"

// Trainset statuses as reported by the backend.
const (
	TrainsetInService   = "in_service"
	TrainsetStandby     = "standby"
	TrainsetMaintenance = "maintenance"
	TrainsetWithdrawn   = "withdrawn"
)

type Trainset struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Status           string    `json:"status"`
	Depot            string    `json:"depot,omitempty"`
	CurrentMileageKM float64   `json:"current_mileage_km"`
	CommissionedAt   time.Time `json:"commissioned_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Component statuses.
const (
	ComponentHealthy    = "healthy"
	ComponentDueService = "due_service"
	ComponentFailed     = "failed"
)

type Component struct {
	ID          string    `json:"id"`
	TrainsetID  string    `json:"trainset_id"`
	Name        string    `json:"name"`
	SerialNo    string    `json:"serial_no"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MileageLog struct {
	ID         string    `json:"id"`
	TrainsetID string    `json:"trainset_id"`
	LogDate    time.Time `json:"log_date"`
	DistanceKM float64   `json:"distance_km"`
	EnergyKWh  float64   `json:"energy_kwh,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	RecordedBy string    `json:"recorded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// KPISnapshot aggregates fleet health for the dashboard landing page.
type KPISnapshot struct {
	FleetSize           int       `json:"fleet_size"`
	InService           int       `json:"in_service"`
	UnderMaintenance    int       `json:"under_maintenance"`
	Standby             int       `json:"standby"`
	AvailabilityPct     float64   `json:"availability_pct"`
	TotalMileageKM      float64   `json:"total_mileage_km"`
	OpenComponentFaults int       `json:"open_component_faults"`
	GeneratedAt         time.Time `json:"generated_at"`
}

type ActivityEntry struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
}
