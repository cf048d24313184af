package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/zigopay/cargo-gateway/internal/model"
	xhttp "github.com/zigopay/cargo-gateway/pkg/http"
)

type InvoiceService interface {
	Generate(ctx context.Context, p model.InvoiceGenerateRequest) (*model.Invoice, error)
	Get(ctx context.Context, id int64) (*model.Invoice, error)
	List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, int64, error)
}

type InvoiceHandler struct {
	svc InvoiceService
}

func RegisterInvoiceRoutes(e *router.Group, h *InvoiceHandler) {
	e.POST("/invoices/generate", h.GenerateInvoice)
	e.GET("/invoices", h.ListInvoices)
	e.GET("/invoices/{id}", h.GetInvoice)
}

func NewInvoiceHandler(invoiceService InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		svc: invoiceService,
	}
}

type generateInvoiceRequest struct {
	CargoID int64       `json:"cargo_id"`
	Amount  model.Cents `json:"amount"`
	ActorID int64       `json:"actor_id"`
}

type invoiceListResponse struct {
	Items []*model.Invoice `json:"items"`
	Total int64            `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *InvoiceHandler) GenerateInvoice(ctx *xhttp.RequestCtx) {
	var req generateInvoiceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	invoice, err := h.svc.Generate(ctx, model.InvoiceGenerateRequest{
		CargoID: req.CargoID,
		Amount:  req.Amount,
		ActorID: req.ActorID,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, invoice)
}

func (h *InvoiceHandler) GetInvoice(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid invoice id")
		return
	}
	invoice, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, invoice)
}

func (h *InvoiceHandler) ListInvoices(ctx *xhttp.RequestCtx) {
	var f model.InvoiceFilter

	if id, ok := queryInt64(ctx, "cargo_id"); ok {
		f.CargoID = &id
	}
	if v := query(ctx, "status"); v != "" {
		status := model.InvoiceStatus(v)
		f.Status = &status
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
	writeJSON(ctx, 200, invoiceListResponse{Items: items, Total: total})
}
