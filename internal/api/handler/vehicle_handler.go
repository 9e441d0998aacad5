package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
	"etc_backend/internal/service"
)

type VehicleHandler struct {
	vehicleService *service.VehicleService
	accountService *service.AccountService
}

func NewVehicleHandler(vs *service.VehicleService, as *service.AccountService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vs, accountService: as}
}

// POST /vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var dto domain.CreateVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.vehicleService.Create(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEntry):
			respondError(c, http.StatusConflict, "Biển số xe đã tồn tại trong hệ thống")
		case errors.Is(err, service.ErrInvalidAmount):
			respondError(c, http.StatusBadRequest, "Số dư ban đầu không hợp lệ")
		default:
			respondError(c, http.StatusInternalServerError, "Không thể tạo xe")
		}
		return
	}
	respond(c, http.StatusCreated, "Tạo xe thành công", v)
}

// GET /vehicles?page&per_page
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	var q domain.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Tham số phân trang không hợp lệ")
		return
	}

	vehicles, page, err := h.vehicleService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Lỗi khi lấy danh sách xe")
		return
	}
	respond(c, http.StatusOK, "Lấy danh sách xe thành công", pageData("vehicles", vehicles, page))
}

// GET /vehicles/:plate
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	v, err := h.vehicleService.GetByPlate(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.vehicleError(c, err)
		return
	}
	respond(c, http.StatusOK, "Lấy thông tin xe thành công", v)
}

// GET /vehicles/:plate/detailed
func (h *VehicleHandler) GetVehicleDetailed(c *gin.Context) {
	d, err := h.vehicleService.GetDetailed(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.vehicleError(c, err)
		return
	}
	respond(c, http.StatusOK, "Lấy thông tin chi tiết xe thành công", d)
}

// GET /vehicles/:plate/balance
func (h *VehicleHandler) GetBalance(c *gin.Context) {
	b, err := h.accountService.GetBalance(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.vehicleError(c, err)
		return
	}
	respond(c, http.StatusOK, "Lấy số dư thành công", b)
}

// PUT /vehicles/id/:id
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID xe không hợp lệ")
		return
	}
	var dto domain.UpdateVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.vehicleService.Update(c.Request.Context(), id, dto)
	if err != nil {
		h.vehicleError(c, err)
		return
	}
	respond(c, http.StatusOK, "Cập nhật xe thành công", v)
}

func (h *VehicleHandler) vehicleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrVehicleNotFound) {
		respondError(c, http.StatusNotFound, "Không tìm thấy xe")
		return
	}
	respondError(c, http.StatusInternalServerError, "Lỗi khi xử lý thông tin xe")
}
