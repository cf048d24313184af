package repository

import (
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
)

type CargoEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	CustomerID     int64     `db:"customer_id"     gorm:"column:customer_id;not null;index"`
	TrackingNumber string    `db:"tracking_number" gorm:"column:tracking_number;not null;unique"`
	Name           string    `db:"name"            gorm:"column:name;not null"`
	Description    string    `db:"description"     gorm:"column:description"`
	Origin         string    `db:"origin"          gorm:"column:origin"`
	Destination    string    `db:"destination"     gorm:"column:destination"`
	WeightKg       int64     `db:"weight_kg"       gorm:"column:weight_kg;not null;default:0"`
	Value          int64     `db:"value"           gorm:"column:value;not null"`
	CBM            int64     `db:"cbm"             gorm:"column:cbm;not null;default:0"`
	Length         int64     `db:"length"          gorm:"column:length"`
	Width          int64     `db:"width"           gorm:"column:width"`
	Height         int64     `db:"height"          gorm:"column:height"`
	Status         string    `db:"status"          gorm:"column:status;not null;default:pending;index"`
	CreatedBy      int64     `db:"created_by"      gorm:"column:created_by"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `db:"updated_at"      gorm:"column:updated_at;autoUpdateTime"`
}

func (CargoEntity) TableName() string {
	return "cargo"
}

type CargoHistoryEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	CargoID        int64     `db:"cargo_id"        gorm:"column:cargo_id;not null;index"`
	PreviousStatus *string   `db:"previous_status" gorm:"column:previous_status"`
	NewStatus      string    `db:"new_status"      gorm:"column:new_status;not null"`
	UpdatedBy      int64     `db:"updated_by"      gorm:"column:updated_by"`
	Remarks        string    `db:"remarks"         gorm:"column:remarks"`
	UpdatedAt      time.Time `db:"updated_at"      gorm:"column:updated_at;autoCreateTime"`
}

func (CargoHistoryEntity) TableName() string {
	return "cargo_history"
}

func toCargoEntity(m *model.Cargo) *CargoEntity {
	if m == nil {
		return nil
	}
	return &CargoEntity{
		ID:             m.ID,
		CustomerID:     m.CustomerID,
		TrackingNumber: m.TrackingNumber,
		Name:           m.Name,
		Description:    m.Description,
		Origin:         m.Origin,
		Destination:    m.Destination,
		WeightKg:       int64(m.WeightKg),
		Value:          int64(m.Value),
		CBM:            int64(m.CBM),
		Length:         int64(m.Length),
		Width:          int64(m.Width),
		Height:         int64(m.Height),
		Status:         string(m.Status),
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toCargoModel(e *CargoEntity) *model.Cargo {
	if e == nil {
		return nil
	}
	return &model.Cargo{
		ID:             e.ID,
		CustomerID:     e.CustomerID,
		TrackingNumber: e.TrackingNumber,
		Name:           e.Name,
		Description:    e.Description,
		Origin:         e.Origin,
		Destination:    e.Destination,
		WeightKg:       model.Cents(e.WeightKg),
		Value:          model.Cents(e.Value),
		CBM:            model.Cents(e.CBM),
		Length:         model.Cents(e.Length),
		Width:          model.Cents(e.Width),
		Height:         model.Cents(e.Height),
		Status:         model.CargoStatus(e.Status),
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toCargoModels(entities []*CargoEntity) []*model.Cargo {
	if entities == nil {
		return nil
	}
	models := make([]*model.Cargo, len(entities))
	for i, e := range entities {
		models[i] = toCargoModel(e)
	}
	return models
}

func toCargoHistoryEntity(m *model.CargoHistory) *CargoHistoryEntity {
	if m == nil {
		return nil
	}
	var prev *string
	if m.PreviousStatus != nil {
		s := string(*m.PreviousStatus)
		prev = &s
	}
	return &CargoHistoryEntity{
		ID:             m.ID,
		CargoID:        m.CargoID,
		PreviousStatus: prev,
		NewStatus:      string(m.NewStatus),
		UpdatedBy:      m.UpdatedBy,
		Remarks:        m.Remarks,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toCargoHistoryModel(e *CargoHistoryEntity) *model.CargoHistory {
	if e == nil {
		return nil
	}
	var prev *model.CargoStatus
	if e.PreviousStatus != nil {
		s := model.CargoStatus(*e.PreviousStatus)
		prev = &s
	}
	return &model.CargoHistory{
		ID:             e.ID,
		CargoID:        e.CargoID,
		PreviousStatus: prev,
		NewStatus:      model.CargoStatus(e.NewStatus),
		UpdatedBy:      e.UpdatedBy,
		Remarks:        e.Remarks,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toCargoHistoryModels(entities []*CargoHistoryEntity) []*model.CargoHistory {
	if entities == nil {
		return nil
	}
	models := make([]*model.CargoHistory, len(entities))
	for i, e := range entities {
		models[i] = toCargoHistoryModel(e)
	}
	return models
}
