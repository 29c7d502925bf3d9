// Package common — errors.go определяет ошибки, по которым обработчики
// различают типы проблем и отвечают пользователю понятным текстом.
package common

import "errors"

var (
	// ErrAlreadyRegistered — участник уже записан на эту дату
	ErrAlreadyRegistered = errors.New("вы уже записаны на эту дату")
	// ErrBadDate — дата должна быть в формате ДД.ММ.ГГГГ
	ErrBadDate = errors.New("дата должна быть в формате ДД.ММ.ГГГГ")
)
