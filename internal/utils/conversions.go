package utils

// ToStringSlice converts a decoded JSON array into its string members.
// Non-string members are skipped and anything that is not an array yields an empty slice.
func ToStringSlice(v any) []string {
	stringSlice := make([]string, 0)
	switch slice := v.(type) {
	case []string:
		stringSlice = append(stringSlice, slice...)
	case []any:
		for _, item := range slice {
			if s, ok := item.(string); ok {
				stringSlice = append(stringSlice, s)
			}
		}
	}
	return stringSlice
}
