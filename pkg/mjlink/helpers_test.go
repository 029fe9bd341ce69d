// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import "fmt"

// statusReply builds a well-formed status reply line, CR included.
func statusReply(station int, code StatusCode) string {
	body := fmt.Sprintf("%s%02d%s00", Header, station, code)
	return string(AppendChecksum(body))
}

// valueReply builds a well-formed parameter or timer reply line, CR included.
func valueReply(station int, function, code, value string) string {
	body := fmt.Sprintf("%s%02d%s%s%s", Header, station, function, code, value)
	return string(AppendChecksum(body))
}
