package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ガード付き減算で在庫が足りなかった
	ErrInsufficientStock = errors.New("insufficient stock")
	// 一意制約違反（code / email / order_number など）
	ErrDuplicate = errors.New("duplicate")
)
