package model

import (
	"errors"
	"time"
)

// CargoStatus is the lifecycle state of a cargo record.
type CargoStatus string

const (
	CargoStatusPending   CargoStatus = "pending"
	CargoStatusInTransit CargoStatus = "in_transit"
	CargoStatusArrived   CargoStatus = "arrived"
	CargoStatusDelivered CargoStatus = "delivered"
)

// KnownCargoStatus reports whether s is one of the recognized states.
// Semantically odd jumps (e.g. pending straight to delivered) are
// accepted on purpose; only unknown values are rejected.
func KnownCargoStatus(s CargoStatus) bool {
	switch s {
	case CargoStatusPending, CargoStatusInTransit, CargoStatusArrived, CargoStatusDelivered:
		return true
	}
	return false
}

type Cargo struct {
	ID             int64       `json:"id"`
	CustomerID     int64       `json:"customer_id"`
	TrackingNumber string      `json:"tracking_number"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Origin         string      `json:"origin"`
	Destination    string      `json:"destination"`
	WeightKg       Cents       `json:"weight_kg"` // hundredths of a kg
	Value          Cents       `json:"value"`
	CBM            Cents       `json:"cbm"` // hundredths of a cubic meter
	Length         Cents       `json:"length,omitempty"`
	Width          Cents       `json:"width,omitempty"`
	Height         Cents       `json:"height,omitempty"`
	Status         CargoStatus `json:"status"`
	CreatedBy      int64       `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type CargoHistory struct {
	ID             int64        `json:"id"`
	CargoID        int64        `json:"cargo_id"`
	PreviousStatus *CargoStatus `json:"previous_status"` // nil for the registration entry
	NewStatus      CargoStatus  `json:"new_status"`
	UpdatedBy      int64        `json:"updated_by"`
	Remarks        string       `json:"remarks,omitempty"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CargoCreateRequest is the input for registering cargo.
type CargoCreateRequest struct {
	CustomerID  int64
	Name        string
	Description string
	Origin      string
	Destination string
	WeightKg    Cents
	Value       Cents
	CBM         Cents
	Length      Cents
	Width       Cents
	Height      Cents
	ActorID     int64
}

func (p CargoCreateRequest) Validate() error {
	if p.CustomerID == 0 {
		return errors.New("customer_id is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Value <= 0 {
		return errors.New("value must be positive")
	}
	return nil
}

// CargoFilter controls List queries.
type CargoFilter struct {
	CustomerID *int64
	Status     *CargoStatus
	Search     *string // tracking number or name, substring
	Limit      int
	Offset     int
	Desc       bool
}

// TrackingPoint is one step of the public tracking timeline.
type TrackingPoint struct {
	Status    CargoStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Remarks   string      `json:"remarks,omitempty"`
}
