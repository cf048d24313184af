package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/services"
	xhttp "github.com/zigopay/cargo-gateway/pkg/http"
)

type WalletService interface {
	CreateWallet(ctx context.Context, customerID int64, autoPayment bool) (*model.Wallet, error)
	Get(ctx context.Context, walletID int64) (*model.Wallet, error)
	GetByCustomer(ctx context.Context, customerID int64) (*model.Wallet, error)
	Deposit(ctx context.Context, walletID int64, amount model.Cents, method, account string) (*model.WalletTransaction, error)
	Withdraw(ctx context.Context, walletID int64, amount model.Cents, account string) (*model.WalletTransaction, error)
	PayInvoice(ctx context.Context, walletID, invoiceID, actorID int64) (*services.PaymentResult, error)
	Transactions(ctx context.Context, walletID int64, f model.WalletTransactionFilter) ([]*model.WalletTransaction, int64, error)
	SetAutoPayment(ctx context.Context, walletID int64, enabled bool) error
	Reconcile(ctx context.Context, walletID int64) (balance, ledgerSum model.Cents, err error)
}

type WalletHandler struct {
	svc WalletService
}

func RegisterWalletRoutes(e *router.Group, h *WalletHandler) {
	e.POST("/wallets", h.CreateWallet)
	e.GET("/wallets/{id}", h.GetWallet)
	e.GET("/wallets/customer/{id}", h.GetWalletByCustomer)
	e.POST("/wallets/{id}/deposit", h.Deposit)
	e.POST("/wallets/{id}/withdraw", h.Withdraw)
	e.POST("/wallets/{id}/pay-invoice", h.PayInvoice)
	e.GET("/wallets/{id}/transactions", h.ListWalletTransactions)
	e.PATCH("/wallets/{id}/auto-payment", h.SetAutoPayment)
	e.GET("/wallets/{id}/reconcile", h.Reconcile)
}

func NewWalletHandler(walletService WalletService) *WalletHandler {
	return &WalletHandler{
		svc: walletService,
	}
}

type createWalletRequest struct {
	CustomerID  int64 `json:"customer_id"`
	AutoPayment bool  `json:"auto_payment"`
}

type depositRequest struct {
	Amount  model.Cents `json:"amount"`
	Method  string      `json:"method"`
	Account string      `json:"account"`
}

type withdrawRequest struct {
	Amount  model.Cents `json:"amount"`
	Account string      `json:"account"`
}

type payInvoiceRequest struct {
	InvoiceID int64 `json:"invoice_id"`
	ActorID   int64 `json:"actor_id"`
}

type setAutoPaymentRequest struct {
	Enabled bool `json:"enabled"`
}

type walletTransactionListResponse struct {
	Items []*model.WalletTransaction `json:"items"`
	Total int64                      `json:"total"`
}

type reconcileResponse struct {
	Balance   model.Cents `json:"balance"`
	LedgerSum model.Cents `json:"ledger_sum"`
	Balanced  bool        `json:"balanced"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *WalletHandler) CreateWallet(ctx *xhttp.RequestCtx) {
	var req createWalletRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.CustomerID == 0 {
		writeError(ctx, 400, "customer_id is required")
		return
	}
	wallet, err := h.svc.CreateWallet(ctx, req.CustomerID, req.AutoPayment)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, wallet)
}

func (h *WalletHandler) GetWallet(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}
	wallet, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, wallet)
}

func (h *WalletHandler) GetWalletByCustomer(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}
	wallet, err := h.svc.GetByCustomer(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, wallet)
}

func (h *WalletHandler) Deposit(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}
	var req depositRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	txn, err := h.svc.Deposit(ctx, id, req.Amount, req.Method, req.Account)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, txn)
}

func (h *WalletHandler) Withdraw(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}
	var req withdrawRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	txn, err := h.svc.Withdraw(ctx, id, req.Amount, req.Account)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, txn)
}

func (h *WalletHandler) PayInvoice(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}
	var req payInvoiceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.InvoiceID == 0 {
		writeError(ctx, 400, "invoice_id is required")
		return
	}

	result, err := h.svc.PayInvoice(ctx, id, req.InvoiceID, req.ActorID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, result)
}

func (h *WalletHandler) ListWalletTransactions(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}

	var f model.WalletTransactionFilter
	if v := query(ctx, "type"); v != "" {
		txType := model.WalletTransactionType(v)
		f.Type = &txType
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

	items, total, err := h.svc.Transactions(ctx, id, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, walletTransactionListResponse{Items: items, Total: total})
}

func (h *WalletHandler) SetAutoPayment(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}
	var req setAutoPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.SetAutoPayment(ctx, id, req.Enabled); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]bool{"auto_payment_enabled": req.Enabled})
}

func (h *WalletHandler) Reconcile(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid wallet id")
		return
	}

	balance, sum, err := h.svc.Reconcile(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, reconcileResponse{Balance: balance, LedgerSum: sum, Balanced: balance == sum})
}
