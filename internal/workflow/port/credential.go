package port

import "context"

type apiKeyCtxKey struct{}

// WithAPIKey 将本次生成周期的凭证快照放入 context
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

// APIKeyFromContext 读取凭证快照
func APIKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(apiKeyCtxKey{}).(string)
	return key, ok && key != ""
}
