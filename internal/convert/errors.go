// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package convert

import (
	"errors"
	"fmt"
)

// Error kinds, for use with errors.Is
var (
	ErrConfig = errors.New("configuration error")
	ErrIO     = errors.New("i/o error")
)

// An invalid configuration. Detected before any file is opened
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
	Err    error // underlying cause, if any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
func (e *ConfigError) Unwrap() error        { return e.Err }

// A failed file operation. Offset is the byte offset in the file
// where the operation failed, or -1 if not applicable
type IOError struct {
	Op     string // open, create, read, write, flush, close
	Path   string
	Offset int64
	Err    error
}

func (e *IOError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s %s at offset %d: %s", ErrIO, e.Op, e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %s", ErrIO, e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }
func (e *IOError) Unwrap() error        { return e.Err }
