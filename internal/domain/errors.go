package domain

import "errors"

// Виды ошибок ядра; HTTP-слой транслирует их в статус-коды
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrPayloadTooLarge  = errors.New("payload exceeds upload size limit")
	ErrQuotaExceeded    = errors.New("storage quota exceeded")
)
