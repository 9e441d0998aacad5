package service

import "errors"

var (
	ErrVehicleNotFound     = errors.New("không tìm thấy xe")
	ErrInsufficientBalance = errors.New("số dư không đủ")
	ErrAccountInactive     = errors.New("tài khoản không hoạt động")
	ErrInvalidAmount       = errors.New("số tiền phải lớn hơn 0")
	ErrReferenceConflict   = errors.New("mã tham chiếu đã được dùng")
)
