package domain

import "context"

type requestKey struct{}

type requestInfo struct {
	ip        string
	userAgent string
}

// WithRequest attaches the caller's address and user agent for audit rows.
func WithRequest(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestKey{}, requestInfo{ip: ip, userAgent: userAgent})
}

func RequestFromContext(ctx context.Context) (ip string, userAgent string) {
	if ctx == nil {
		return "", ""
	}
	info, _ := ctx.Value(requestKey{}).(requestInfo)
	return info.ip, info.userAgent
}
