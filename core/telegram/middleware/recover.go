package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/d4n3436/fergun/core/logger"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// PanicError is returned in place of a handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("telegram: handler panic: %v", e.Value) }

// Code names the error in handler logs.
func (e *PanicError) Code() string { return "PANIC" }

// RecoverMiddleware turns a panic below it into a *PanicError and logs it
// with the stack.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			pe := &PanicError{Value: r, Stack: debug.Stack()}
			logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
				slog.Any("err", r),
				slog.String("stack", string(pe.Stack)),
			)
			err = pe
		}()
		return next(c)
	}
}
