package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func isNegative[T integer](v T) bool {
	var zero T
	return v < zero
}

// ToUint32 converts v to uint32.
func ToUint32[T integer](v T) (uint32, error) {
	if isNegative(v) {
		return 0, fmt.Errorf("%w: %d is negative", ErrOverflow, v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d exceeds uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// ToUint64 converts v to uint64.
func ToUint64[T integer](v T) (uint64, error) {
	if isNegative(v) {
		return 0, fmt.Errorf("%w: %d is negative", ErrOverflow, v)
	}
	return uint64(v), nil
}

// ToInt converts v to int.
func ToInt[T integer](v T) (int, error) {
	if isNegative(v) {
		if int64(v) < math.MinInt {
			return 0, fmt.Errorf("%w: %d below int", ErrOverflow, v)
		}
		return int(v), nil
	}
	if uint64(v) > math.MaxInt {
		return 0, fmt.Errorf("%w: %d exceeds int", ErrOverflow, v)
	}
	return int(v), nil
}

// MustUint32 is ToUint32 for values bounded by construction. It panics on overflow.
func MustUint32[T integer](v T) uint32 {
	u, err := ToUint32(v)
	if err != nil {
		panic(err)
	}
	return u
}
