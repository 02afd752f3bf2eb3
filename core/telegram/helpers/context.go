package helpers

import (
	"context"
	"strconv"

	"github.com/d4n3436/fergun/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey = "fergun.ctx"
	ridKey = "rid"
)

// Origin identifies who caused an update and which message it concerns.
type Origin struct {
	UpdateID  int
	UserID    int64
	ChatID    int64
	ChatType  tele.ChatType
	MessageID int
}

// Message formats the target message the way session logs refer to it.
func (o Origin) Message() string {
	if o.ChatID == 0 || o.MessageID == 0 {
		return ""
	}
	return strconv.FormatInt(o.ChatID, 10) + ":" + strconv.Itoa(o.MessageID)
}

// OriginOf extracts the origin of the update behind c. Reaction updates
// carry neither a sender nor a chat in the usual places, so they are read
// directly.
func OriginOf(c tele.Context) Origin {
	upd := c.Update()
	o := Origin{UpdateID: upd.ID}
	if user := c.Sender(); user != nil {
		o.UserID = user.ID
	}
	if chat := c.Chat(); chat != nil {
		o.ChatID, o.ChatType = chat.ID, chat.Type
	}
	switch {
	case upd.MessageReaction != nil:
		mr := upd.MessageReaction
		if mr.Chat != nil {
			o.ChatID, o.ChatType = mr.Chat.ID, mr.Chat.Type
		}
		if o.UserID == 0 && mr.User != nil {
			o.UserID = mr.User.ID
		}
		o.MessageID = mr.MessageID
	case upd.Callback != nil && upd.Callback.Message != nil:
		o.MessageID = upd.Callback.Message.ID
	}
	return o
}

// StoreContext attaches ctx to c for the helpers further down the chain.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxKey, ctx)
}

func storedContext(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the logging context of the update behind c, creating
// and caching it on first use.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := storedContext(c); ok {
		return cached
	}
	ctx := NewContext(c, OriginOf(c))
	StoreContext(c, ctx)
	return ctx
}

// NewContext builds a fresh context carrying o. The request id set on c by
// the logging middleware is reused when present.
func NewContext(c tele.Context, o Origin) context.Context {
	rid, _ := c.Get(ridKey).(string)
	if rid == "" {
		rid = logger.BuildRID(o.UpdateID, o.ChatID, o.UserID)
		c.Set(ridKey, rid)
	}
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, o.UpdateID, o.UserID, o.ChatID)
	ctx = logger.WithMessage(ctx, o.Message())
	return logger.WithLogger(ctx, logger.Component("tg"))
}

// WithHandler tags the stored context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
