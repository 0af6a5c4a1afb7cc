package xerror

import "errors"

func Is(err error, target error) bool {
	if xerr, ok := err.(xerror); ok {
		return errors.Is(xerr.err, target)
	}

	return errors.Is(err, target)
}

// Cause returns the error that was first wrapped, without the trail.
func Cause(err error) error {
	if xerr, ok := err.(xerror); ok {
		return xerr.err
	}
	return err
}
