package d6t

import (
	"encoding/binary"
)

// Wire constants.
const (
	// CmdMeasure is the command byte requesting a measurement.
	CmdMeasure byte = 0x4c
	// ResponseSize is the number of bytes read back for CmdMeasure.
	ResponseSize = 35
	// WordCount is the number of decoded words (PTAT + PX).
	WordCount = 1 + PixelCount
	// PixelCount is the number of PX channels.
	PixelCount = 16
)

// Value keys of a decoded measurement.
const (
	KeyPTAT = "PTAT"
	KeyPX   = "PX"
)

// Measurement is one decoded response.
type Measurement struct {
	PTAT uint16
	PX   [PixelCount]uint16
}

// Decode interprets a raw response. Only the first 2*WordCount bytes are
// used, but the response must be at least ResponseSize long.
func Decode(raw []byte) (m Measurement, err error) {
	if len(raw) < ResponseSize {
		return m, &ShortResponseError{Got: len(raw), Want: ResponseSize}
	}
	m.PTAT = binary.LittleEndian.Uint16(raw)
	for i := range m.PX {
		m.PX[i] = binary.LittleEndian.Uint16(raw[2+2*i:])
	}
	return
}

// Words returns PTAT followed by PX, in wire order.
func (m Measurement) Words() (w [WordCount]uint16) {
	w[0] = m.PTAT
	copy(w[1:], m.PX[:])
	return
}

// Encode renders the measurement as a device response, padding byte
// included.
func (m Measurement) Encode() []byte {
	b := make([]byte, ResponseSize)
	for i, w := range m.Words() {
		binary.LittleEndian.PutUint16(b[2*i:], w)
	}
	return b
}
