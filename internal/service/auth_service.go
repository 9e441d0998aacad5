package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/guregu/null.v4"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

var ErrInvalidCredentials = errors.New("tên đăng nhập hoặc mật khẩu không đúng")
var ErrUserAlreadyExists = errors.New("tên người dùng đã tồn tại")
var ErrTokenInvalid = errors.New("token không hợp lệ hoặc đã hết hạn")

const tokenIssuer = "etc_backend"

// OperatorClaims là nội dung token của nhân viên trạm
type OperatorClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Station  string `json:"station,omitempty"`
	jwt.RegisteredClaims
}

// UserID đọc id người dùng từ subject
func (c *OperatorClaims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}

type AuthService struct {
	userRepo repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

// Register tạo tài khoản operator. Tài khoản admin chỉ tạo trực tiếp trong DB.
func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	_, err := s.userRepo.FindByUsername(ctx, dto.Username)
	switch {
	case err == nil:
		return nil, ErrUserAlreadyExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lỗi khi kiểm tra người dùng: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	created, err := s.userRepo.Create(ctx, &domain.User{
		Username: dto.Username,
		Password: string(hash),
		Role:     domain.RoleOperator,
		Station:  null.NewString(dto.Station, dto.Station != ""),
	})
	if err != nil {
		// hai request đăng ký cùng lúc: unique constraint bắt được
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("lỗi khi tạo người dùng: %w", err)
	}
	created.Password = ""
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByUsername(ctx, dto.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lỗi khi tìm người dùng: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user, time.Now())
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponseDTO{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Station:  user.Station.String,
	}, nil
}

func (s *AuthService) issueToken(user *domain.User, now time.Time) (string, error) {
	claims := OperatorClaims{
		Username: user.Username,
		Role:     user.Role,
		Station:  user.Station.String,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("lỗi tạo token: %w", err)
	}
	return signed, nil
}

// ValidateToken kiểm tra chữ ký HS256, issuer và hạn của token
func (s *AuthService) ValidateToken(tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: token đã hết hạn", ErrTokenInvalid)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: token có định dạng sai", ErrTokenInvalid)
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Username == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: thiếu thông tin người dùng", ErrTokenInvalid)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject không hợp lệ", ErrTokenInvalid)
	}
	return claims, nil
}
