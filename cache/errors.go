package cache

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrTypeMismatch is matched (via errors.Is) by every *TypeMismatchError.
var ErrTypeMismatch = errors.New("cache: stored value has a different type")

// TypeMismatchError reports a fresh entry whose value was stored as Got but
// requested as Want. It means the same key is used for two value types,
// which is a caller bug; the cache never retries or coerces.
type TypeMismatchError struct {
	Key  any
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cache: key %v holds %v, requested as %v", e.Key, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrTypeMismatch) true.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
