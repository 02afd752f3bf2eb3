// Package callbacks decodes inline button data produced by Telebot's
// markup.Data helpers.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseData splits Telebot's "\f<unique>|<payload>" callback encoding.
// Data without the leading form feed is treated the same way.
func ParseData(data string) (string, string) {
	raw := strings.TrimPrefix(data, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Split returns the unique key and payload of cb. When Telebot already
// routed the callback by its unique, Data holds the bare payload.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseData(cb.Data)
}

// Key returns the unique key of the callback behind c.
func Key(c tele.Context) string {
	key, _ := Split(c.Callback())
	return key
}

// Payload returns the payload of the callback behind c.
func Payload(c tele.Context) string {
	_, payload := Split(c.Callback())
	return payload
}

// PayloadInt64 parses the callback payload as an int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(Payload(c)), 10, 64)
}
