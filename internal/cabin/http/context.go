package http

import "context"

type contextKey string

const slugKey contextKey = "cabin_slug"

func withSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugKey, slug)
}

func slugFromContext(ctx context.Context) string {
	slug, _ := ctx.Value(slugKey).(string)
	return slug
}
