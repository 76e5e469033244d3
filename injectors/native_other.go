//go:build !linux || !cgo

package injectors

import (
	"errors"
	"runtime"

	"github.com/teranos/teleprompter"
)

// Native is only available on linux
type Native struct{}

// NewNative always fails outside linux; use the dry or tea backends instead
func NewNative() (*Native, error) {
	return nil, errors.New("native injector: not supported on " + runtime.GOOS)
}

// PressDown implements teleprompter.Injector
func (*Native) PressDown(teleprompter.NamedKey) error {
	return errors.New("native injector: not supported on " + runtime.GOOS)
}

// PressUp implements teleprompter.Injector
func (*Native) PressUp(teleprompter.NamedKey) error {
	return errors.New("native injector: not supported on " + runtime.GOOS)
}
