package attrs

// ExtractString returns the string value paired with key in a slog-style
// [key1, value1, key2, value2, ...] slice. Values implementing fmt.Stringer
// are rendered with String. Missing keys yield "".
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}
