package handlers

import (
	"context"
	"encoding/json"

	"github.com/fasthttp/router"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/services"
	xhttp "github.com/zigopay/cargo-gateway/pkg/http"
)

type PaymentService interface {
	Process(ctx context.Context, p model.PaymentProcessRequest) (*services.PaymentResult, error)
	CompleteReleaseOrder(ctx context.Context, releaseCode string, actorID int64) (*model.ReleaseOrder, error)
	GetReleaseOrder(ctx context.Context, releaseCode string) (*model.ReleaseOrder, error)
	GetPayment(ctx context.Context, id int64) (*model.Payment, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func RegisterPaymentRoutes(e *router.Group, h *PaymentHandler) {
	e.POST("/payments/process", h.ProcessPayment)
	e.GET("/payments/{id}", h.GetPayment)
	e.GET("/release-orders/{code}", h.GetReleaseOrder)
	e.PATCH("/release-orders/{code}/complete", h.CompleteReleaseOrder)
}

func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: paymentService,
	}
}

type processPaymentRequest struct {
	InvoiceID     int64           `json:"invoice_id"`
	ControlNumber string          `json:"control_number"`
	Amount        model.Cents     `json:"amount"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference"`
	Details       json.RawMessage `json:"details"`
	ActorID       int64           `json:"actor_id"`
}

type completeReleaseOrderRequest struct {
	ActorID int64 `json:"actor_id"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *PaymentHandler) ProcessPayment(ctx *xhttp.RequestCtx) {
	var req processPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	result, err := h.svc.Process(ctx, model.PaymentProcessRequest{
		InvoiceID:     req.InvoiceID,
		ControlNumber: req.ControlNumber,
		Amount:        req.Amount,
		Method:        req.Method,
		Reference:     req.Reference,
		Details:       req.Details,
		ActorID:       req.ActorID,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, result)
}

func (h *PaymentHandler) GetPayment(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid payment id")
		return
	}
	payment, err := h.svc.GetPayment(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, payment)
}

func (h *PaymentHandler) GetReleaseOrder(ctx *xhttp.RequestCtx) {
	code := pathString(ctx, "code")
	if code == "" {
		writeError(ctx, 400, "release code is required")
		return
	}
	release, err := h.svc.GetReleaseOrder(ctx, code)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, release)
}

func (h *PaymentHandler) CompleteReleaseOrder(ctx *xhttp.RequestCtx) {
	code := pathString(ctx, "code")
	if code == "" {
		writeError(ctx, 400, "release code is required")
		return
	}
	var req completeReleaseOrderRequest
	if len(ctx.PostBody()) > 0 {
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, 400, "invalid JSON: "+err.Error())
			return
		}
	}

	release, err := h.svc.CompleteReleaseOrder(ctx, code, req.ActorID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, release)
}
