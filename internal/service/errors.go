package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAuthFailure       = errors.New("secret mismatch")
	ErrNoTicketAvailable = errors.New("no usable draw ticket")
	ErrNoStockAvailable  = errors.New("no prize stock available")
	ErrTicketRaceLost    = errors.New("draw ticket consumed concurrently")
	ErrNoRevocableTicket = errors.New("no revocable draw ticket")
	ErrCodeNotFound      = errors.New("prize code not found")
	ErrLookupNotFound    = errors.New("lookup target not found")
	ErrStoreFailure      = errors.New("store failure")
)

// storeFailure 包装存储层错误，保留原始错误信息
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreFailure, op, err)
}
