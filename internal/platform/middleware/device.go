package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// Channel classifies the client for audit events and nothing else.
type Channel string

const (
	ChannelDesktop Channel = "desktop"
	ChannelMobile  Channel = "mobile"
	ChannelBot     Channel = "bot"
	ChannelUnknown Channel = "unknown"
)

type contextKeyChannel struct{}

// ContextKeyChannel is exported for use in handlers.
var ContextKeyChannel = contextKeyChannel{}

// GetChannel retrieves the client channel from the context.
func GetChannel(ctx context.Context) Channel {
	ch, ok := ctx.Value(ContextKeyChannel).(Channel)
	if !ok {
		return ChannelUnknown
	}
	return ch
}

// DeviceDetection classifies the User-Agent so audit events can record which
// storefront surface drove a mutation.
func DeviceDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ch := ChannelUnknown
		if uaString := r.UserAgent(); uaString != "" {
			ua := useragent.New(uaString)
			switch {
			case ua.Bot():
				ch = ChannelBot
			case ua.Mobile():
				ch = ChannelMobile
			default:
				ch = ChannelDesktop
			}
		}
		ctx := context.WithValue(r.Context(), ContextKeyChannel, ch)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
