package requestdata

import (
	"context"
	"github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData identifies the caller of the current request. Authenticated
// requests carry a UserID; guest requests (cart, chat) carry the SessionID
// taken from the X-Session-Id header. Exactly one of the two is set.
type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       uuid.UUID
	SessionID    string
	IsAdmin      bool
}

// Identified reports whether the request carries any usable identity.
func (rd *RequestData) Identified() bool {
	if rd == nil {
		return false
	}
	return rd.UserID != uuid.Nil || rd.SessionID != ""
}
