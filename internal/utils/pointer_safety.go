package utils

func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// NonEmpty reports whether s points at a string with content.
func NonEmpty(s *string) bool {
	return s != nil && *s != ""
}
