package utils

// ToPtr returns a pointer to the given value. Used for optional struct
// fields of type *T.
func ToPtr[T any](v T) *T {
	return &v
}
