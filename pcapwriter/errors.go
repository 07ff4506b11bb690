// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapwriter

import "fmt"

// ModeError reports an unrecognised output format or a combination of
// inputs a given format cannot render (e.g. mismatched link types under
// "basic").
type ModeError struct {
	Msg string
}

func newModeError(format string, args ...interface{}) *ModeError {
	return &ModeError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ModeError) Error() string {
	return "pcapwriter: " + e.Msg
}
