package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"etc_backend/internal/api/middleware"
	"etc_backend/internal/domain"
	"etc_backend/internal/lpr"
	"etc_backend/internal/service"
)

var allowedImageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true, "tiff": true,
}

type ScanHandler struct {
	lprService     *service.LPRService
	scanService    *service.ScanService
	uploadFolder   string
	maxUploadBytes int64
}

func NewScanHandler(ls *service.LPRService, ss *service.ScanService, uploadFolder string, maxUploadBytes int64) *ScanHandler {
	return &ScanHandler{
		lprService:     ls,
		scanService:    ss,
		uploadFolder:   uploadFolder,
		maxUploadBytes: maxUploadBytes,
	}
}

// POST /scan/license-plate (multipart: image, station_location)
func (h *ScanHandler) ScanUpload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, http.StatusRequestEntityTooLarge, "File ảnh vượt quá dung lượng cho phép")
			return
		}
		respondError(c, http.StatusBadRequest, "Không có file ảnh")
		return
	}
	ext, ok := imageExtension(file.Filename)
	if !ok {
		respondError(c, http.StatusBadRequest, "File phải là ảnh hợp lệ")
		return
	}

	path, err := h.uploadPath(ext)
	if err != nil {
		log.Printf("ScanHandler: Không tạo được thư mục upload: %v", err)
		respondError(c, http.StatusInternalServerError, "Không thể lưu file ảnh")
		return
	}
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Printf("ScanHandler: Lỗi lưu file '%s': %v", path, err)
		respondError(c, http.StatusInternalServerError, "Không thể lưu file ảnh")
		return
	}

	h.scan(c, path, c.PostForm("station_location"))
}

// POST /scan/license-plate/base64
func (h *ScanHandler) ScanBase64(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, base64BodyLimit(h.maxUploadBytes))
	}
	var req domain.LPRRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, http.StatusRequestEntityTooLarge, "File ảnh vượt quá dung lượng cho phép")
			return
		}
		respondError(c, http.StatusBadRequest, "Payload không hợp lệ: "+err.Error())
		return
	}

	imageBytes, err := service.DecodeImageBase64(req.ImageBase64)
	if err != nil || len(imageBytes) == 0 {
		respondError(c, http.StatusBadRequest, "Dữ liệu ảnh không hợp lệ")
		return
	}
	if h.maxUploadBytes > 0 && int64(len(imageBytes)) > h.maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "File ảnh vượt quá dung lượng cho phép")
		return
	}
	log.Printf("ScanHandler: Đã nhận %d bytes ảnh base64", len(imageBytes))

	path, err := h.uploadPath(sniffExtension(imageBytes))
	if err == nil {
		err = os.WriteFile(path, imageBytes, 0o644)
	}
	if err != nil {
		log.Printf("ScanHandler: Lỗi lưu ảnh base64: %v", err)
		respondError(c, http.StatusInternalServerError, "Không thể lưu file ảnh")
		return
	}

	h.scan(c, path, req.StationLocation)
}

// base64BodyLimit: ảnh base64 dài hơn 4/3 lần, cộng thêm phần JSON còn lại
func base64BodyLimit(maxImageBytes int64) int64 {
	return maxImageBytes/3*4 + 4 + 64<<10
}

// GET /scan/history?license_plate&days&page&per_page
func (h *ScanHandler) History(c *gin.Context) {
	var q domain.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Tham số truy vấn không hợp lệ")
		return
	}

	items, page, err := h.scanService.History(c.Request.Context(), c.Query("license_plate"), q)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Lỗi khi lấy lịch sử quét")
		return
	}
	respond(c, http.StatusOK, "Lấy lịch sử quét thành công", pageData("scans", items, page))
}

// scan chạy nhận diện; trạm mặc định là trạm của nhân viên đang đăng nhập
func (h *ScanHandler) scan(c *gin.Context, path, station string) {
	if station == "" {
		station = c.GetString(middleware.StationKey)
	}
	resp, err := h.lprService.ScanLicensePlate(c.Request.Context(), path, station)
	if err != nil {
		switch {
		case errors.Is(err, lpr.ErrImageNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, lpr.ErrUnreadableImage):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, lpr.ErrOCRUnavailable):
			respondError(c, http.StatusServiceUnavailable, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "Lỗi xử lý ảnh: "+err.Error())
		}
		return
	}

	message := "Hoàn tất nhận diện biển số"
	if resp.Note != "" {
		message = resp.Note
	}
	respond(c, http.StatusOK, message, resp)
}

func (h *ScanHandler) uploadPath(ext string) (string, error) {
	if err := os.MkdirAll(h.uploadFolder, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("plate_%s_%s.%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8], ext)
	return filepath.Join(h.uploadFolder, name), nil
}

func imageExtension(filename string) (string, bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	return ext, allowedImageExtensions[ext]
}

// sniffExtension đoán phần mở rộng từ nội dung ảnh, mặc định png
func sniffExtension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
