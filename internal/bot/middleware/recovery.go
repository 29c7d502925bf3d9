// Package middleware содержит промежуточные обработчики: логирование
// апдейтов, восстановление после паники и rate-limiting.
package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic восстанавливает горутину-обработчик после паники,
// чтобы один сбойный апдейт не ронял весь polling.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
	}
}
