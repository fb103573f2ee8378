package internal

import "strconv"

// ContextValue reads a typed value stored with Set. The zero value is
// returned when the key is missing or holds another type.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// QueryDefault parses a query parameter as T, falling back to defaultValue
// when it is empty or malformed.
func QueryDefault[T string | int | int64 | bool](c Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := parse[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

// QueryInt reads an integer query parameter, defaulting when absent or
// malformed and clamping into [lo, hi].
func QueryInt(c Context, name string, defaultValue, lo, hi int) int {
	return min(max(QueryDefault(c, name, defaultValue), lo), hi)
}

func parse[T string | int | int64 | bool](raw string) (T, bool) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	}
	if err != nil {
		return zero, false
	}
	return v.(T), true
}
