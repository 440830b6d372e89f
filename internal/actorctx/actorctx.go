package actorctx

import "context"

type ctxKey string

const keyOwnerID ctxKey = "owner_id"

// WithOwnerID records the authenticated caller on a request context so code
// below the HTTP layer (logs, spans) can see who is acting.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, keyOwnerID, ownerID)
}

func OwnerIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyOwnerID).(string)

	return v, ok && v != ""
}
