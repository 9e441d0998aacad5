package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"etc_backend/internal/domain"
	"etc_backend/internal/service"
)

type TransactionHandler struct {
	accountService *service.AccountService
}

func NewTransactionHandler(as *service.AccountService) *TransactionHandler {
	return &TransactionHandler{accountService: as}
}

// POST /transactions/topup
func (h *TransactionHandler) TopUp(c *gin.Context) {
	var dto domain.TopUpDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.accountService.TopUp(c.Request.Context(), dto)
	if err != nil {
		ledgerError(c, err)
		return
	}
	respond(c, http.StatusOK, "Nạp tiền thành công", res)
}

// POST /transactions/toll
func (h *TransactionHandler) DeductToll(c *gin.Context) {
	var dto domain.TollChargeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.accountService.DeductToll(c.Request.Context(), dto)
	if err != nil {
		ledgerError(c, err)
		return
	}
	respond(c, http.StatusOK, "Thu phí thành công", res)
}

// GET /transactions/:plate/history?days&page&per_page
func (h *TransactionHandler) History(c *gin.Context) {
	var q domain.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Tham số truy vấn không hợp lệ")
		return
	}

	items, page, err := h.accountService.History(c.Request.Context(), c.Param("plate"), q)
	if err != nil {
		ledgerError(c, err)
		return
	}
	respond(c, http.StatusOK, "Lấy lịch sử giao dịch thành công", pageData("transactions", items, page))
}

func ledgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVehicleNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrAccountInactive):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReferenceConflict):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "Lỗi xử lý giao dịch")
	}
}
