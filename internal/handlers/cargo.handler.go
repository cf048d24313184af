package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/services"
	xhttp "github.com/zigopay/cargo-gateway/pkg/http"
)

type CargoService interface {
	Create(ctx context.Context, p model.CargoCreateRequest) (*model.Cargo, error)
	UpdateStatus(ctx context.Context, cargoID int64, newStatus model.CargoStatus, actorID int64, remarks string) (*services.StatusUpdateResult, error)
	Get(ctx context.Context, id int64) (*model.Cargo, error)
	List(ctx context.Context, f model.CargoFilter) ([]*model.Cargo, int64, error)
	History(ctx context.Context, cargoID int64, desc bool) ([]*model.CargoHistory, error)
	Track(ctx context.Context, trackingNumber string) (*services.TrackingView, error)
}

type CargoHandler struct {
	svc CargoService
}

func RegisterCargoRoutes(e *router.Group, h *CargoHandler) {
	e.POST("/cargo", h.CreateCargo)
	e.GET("/cargo", h.ListCargo)
	e.GET("/cargo/{id}", h.GetCargo)
	e.GET("/cargo/{id}/history", h.GetCargoHistory)
	e.PATCH("/cargo/{id}/status", h.UpdateCargoStatus)
	e.GET("/track/{tracking_number}", h.TrackCargo)
}

func NewCargoHandler(cargoService CargoService) *CargoHandler {
	return &CargoHandler{
		svc: cargoService,
	}
}

type createCargoRequest struct {
	CustomerID  int64       `json:"customer_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	WeightKg    model.Cents `json:"weight_kg"`
	Value       model.Cents `json:"value"`
	CBM         model.Cents `json:"cbm"`
	Length      model.Cents `json:"length"`
	Width       model.Cents `json:"width"`
	Height      model.Cents `json:"height"`
	ActorID     int64       `json:"actor_id"`
}

type updateCargoStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
	ActorID int64  `json:"actor_id"`
}

type cargoListResponse struct {
	Items []*model.Cargo `json:"items"`
	Total int64          `json:"total"`
}

type cargoHistoryResponse struct {
	Items []*model.CargoHistory `json:"items"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *CargoHandler) CreateCargo(ctx *xhttp.RequestCtx) {
	var req createCargoRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.CargoCreateRequest{
		CustomerID:  req.CustomerID,
		Name:        req.Name,
		Description: req.Description,
		Origin:      req.Origin,
		Destination: req.Destination,
		WeightKg:    req.WeightKg,
		Value:       req.Value,
		CBM:         req.CBM,
		Length:      req.Length,
		Width:       req.Width,
		Height:      req.Height,
		ActorID:     req.ActorID,
	}
	cargo, err := h.svc.Create(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, cargo)
}

func (h *CargoHandler) GetCargo(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid cargo id")
		return
	}
	cargo, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, cargo)
}

func (h *CargoHandler) ListCargo(ctx *xhttp.RequestCtx) {
	var f model.CargoFilter

	if id, ok := queryInt64(ctx, "customer_id"); ok {
		f.CustomerID = &id
	}
	if v := query(ctx, "status"); v != "" {
		status := model.CargoStatus(v)
		f.Status = &status
	}
	if v := query(ctx, "search"); v != "" {
		f.Search = &v
	}
	if n, ok := queryInt(ctx, "limit"); ok {
		f.Limit = n
	}
	if n, ok := queryInt(ctx, "offset"); ok {
		f.Offset = n
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, cargoListResponse{Items: items, Total: total})
}

func (h *CargoHandler) GetCargoHistory(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid cargo id")
		return
	}
	desc := strings.EqualFold(query(ctx, "order"), "desc")

	items, err := h.svc.History(ctx, id, desc)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, cargoHistoryResponse{Items: items})
}

func (h *CargoHandler) UpdateCargoStatus(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid cargo id")
		return
	}
	var req updateCargoStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.svc.UpdateStatus(ctx, id, model.CargoStatus(req.Status), req.ActorID, req.Remarks)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}

func (h *CargoHandler) TrackCargo(ctx *xhttp.RequestCtx) {
	trackingNumber := pathString(ctx, "tracking_number")
	if trackingNumber == "" {
		writeError(ctx, 400, "tracking number is required")
		return
	}

	view, err := h.svc.Track(ctx, trackingNumber)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, view)
}
