package xerror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// xerror carries the original error plus the file:line trail of every Wrap.
type xerror struct {
	err        error
	stacktrace []string
}

func (e xerror) Error() string {
	return fmt.Sprintf("%s\n%s", e.err, strings.Join(e.stacktrace, "\n"))
}

func (e xerror) Unwrap() error {
	return e.err
}

func New(message string) error {
	return newWithCaller(errors.New(message), 2)
}

func Newf(format string, args ...interface{}) error {
	return newWithCaller(fmt.Errorf(format, args...), 2)
}

func Wrap(err error) error {
	return WrapWithCaller(err, 2)
}

func WrapWithCaller(err error, skip int) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(skip)

	if xe, ok := err.(xerror); ok {
		xe.stacktrace = append([]string{fmt.Sprintf("%s %d", file, line)}, xe.stacktrace...)
		return xe
	}

	return xerror{
		err:        err,
		stacktrace: []string{fmt.Sprintf("%s %d", file, line)},
	}
}

func newWithCaller(err error, skip int) error {
	_, file, line, _ := runtime.Caller(skip)
	return xerror{
		err:        err,
		stacktrace: []string{fmt.Sprintf("%s %d", file, line)},
	}
}
