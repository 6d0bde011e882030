package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "chatwarden"

var zlog = zerolog.Nop()

type loggerKey struct{}

type actorKey struct{}

// actorScope remembers the logger before actor fields were added
type actorScope struct {
	actorID int64
	chatID  int64
	base    *zerolog.Logger
}

// InitStructured initializes the structured zerolog logger
func InitStructured(env string) {
	var w io.Writer

	if env == "development" || env == "dev" || env == "local" {
		// 개발 환경은 콘솔 출력
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	} else {
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a copy of ctx whose logger carries request_id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Ctx(ctx).With().Str("request_id", requestID).Logger()
	return context.WithValue(ctx, loggerKey{}, &l)
}

// WithActor returns a copy of ctx whose logger carries the acting member and,
// when known, the chat the command came from
func WithActor(ctx context.Context, actorID, chatID int64) context.Context {
	base := Ctx(ctx)
	l := actorFields(base.With(), actorID, chatID).Logger()
	ctx = context.WithValue(ctx, loggerKey{}, &l)
	return context.WithValue(ctx, actorKey{}, actorScope{actorID: actorID, chatID: chatID, base: base})
}

// Ctx returns the request-scoped logger, or the global logger outside a request
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok {
			return l
		}
	}
	return &zlog
}

// ForActor returns the logger of ctx tagged with actorID.
// A ctx already scoped to the same actor is returned as is; a ctx scoped to
// another actor is re-tagged, keeping its chat.
func ForActor(ctx context.Context, actorID int64) *zerolog.Logger {
	if ctx != nil {
		if scope, ok := ctx.Value(actorKey{}).(actorScope); ok {
			if scope.actorID == actorID {
				return Ctx(ctx)
			}
			l := actorFields(scope.base.With(), actorID, scope.chatID).Logger()
			return &l
		}
	}
	l := actorFields(Ctx(ctx).With(), actorID, 0).Logger()
	return &l
}

func actorFields(c zerolog.Context, actorID, chatID int64) zerolog.Context {
	c = c.Int64("actor_id", actorID)
	if chatID != 0 {
		c = c.Int64("chat_id", chatID)
	}
	return c
}
