// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing bridge identifier.
// Each call to New assigns the next serial value.
type Serial = uint32

// Seq is a per-bridge request sequence number. The first request on a
// bridge is 1; 0 is reserved to mean no request outstanding.
type Seq = uint64

// counter is the global monotonic counter for bridge serials.
var counter atomix.Uint32

// nextSerial returns the next monotonically increasing serial.
func nextSerial() Serial {
	return counter.Add(1)
}
