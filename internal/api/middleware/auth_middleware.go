package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"etc_backend/internal/domain"
	"etc_backend/internal/service"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	UserIDKey               = "userID"
	UserRoleKey             = "userRole"
	UsernameKey             = "username"
	StationKey              = "station"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, domain.APIResponse{Success: false, Message: message})
}

// Authenticate xác thực JWT trong header Authorization
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Thiếu authorization header")
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			abort(c, http.StatusUnauthorized, "Định dạng authorization header không hợp lệ")
			return
		}

		claims, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			log.Printf("Authenticate: Từ chối token: %v", err)
			abort(c, http.StatusUnauthorized, "Token không hợp lệ hoặc đã hết hạn")
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UsernameKey, claims.Username)
		c.Set(StationKey, claims.Station)

		c.Next()
	}
}

// AuthorizeRole chỉ cho qua các vai trò được liệt kê; cần Authenticate() chạy trước
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(UserRoleKey)
		if userRole == "" {
			log.Printf("AuthorizeRole: Không tìm thấy vai trò người dùng trong context")
			abort(c, http.StatusForbidden, "Không có quyền truy cập (thiếu vai trò)")
			return
		}

		for _, reqRole := range requiredRoles {
			if userRole == reqRole {
				c.Next()
				return
			}
		}

		log.Printf("AuthorizeRole: Người dùng với vai trò '%s' không có quyền truy cập (yêu cầu: %v)", userRole, requiredRoles)
		abort(c, http.StatusForbidden, "Không có quyền truy cập (vai trò không phù hợp)")
	}
}
