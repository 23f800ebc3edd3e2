package wclog

import (
	"reflect"
)

// GetPointer returns the memory address of the given value as an unsigned integer.
// It is used to tell apart objects of the same type in debug logs.
func GetPointer(value any) uint {
	ptr := reflect.ValueOf(value).Pointer()
	uintPtr := uintptr(ptr)
	return uint(uintPtr)
}
