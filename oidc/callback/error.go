// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import "errors"

// ErrInvalidParameter is returned for a missing or invalid argument.
var ErrInvalidParameter = errors.New("invalid parameter")
