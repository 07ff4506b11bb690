// Copyright (c) 2024 The pcapdiff Authors. All rights reserved.
// Use of this source code is governed by an MIT license
// that can be found in the LICENSE file.

package pcapdiff

import "fmt"

// ConfigError reports an invalid comparison configuration: a malformed
// byte range or mask, mismatched range lengths, or an unrecognised search
// method or time window.
type ConfigError struct {
	Msg string
}

func newConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return "pcapdiff: " + e.Msg
}
