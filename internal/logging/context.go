package logging

import "context"

type fieldsKey struct{}

// ContextWith returns a copy of ctx carrying key/value pairs that every
// Logger adds to records logged with that context.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := contextFields(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(append(merged, prev...), args...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func contextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(fieldsKey{}).([]any)
	return f
}

// withContextFields prepends the pairs stored in ctx to args.
func withContextFields(ctx context.Context, args []any) []any {
	f := contextFields(ctx)
	if len(f) == 0 {
		return args
	}
	out := make([]any, 0, len(f)+len(args))
	return append(append(out, f...), args...)
}
