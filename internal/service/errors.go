package service

import "errors"

var (
	// ErrPermissionDenied — пользователь без прав администратора
	// вызвал ограниченную операцию. Отличается от «команда не
	// распознана»: отказ всегда явный.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEmptyMessage — попытка подготовить пустую рассылку.
	ErrEmptyMessage = errors.New("broadcast message is empty")
)
