// Package d6t reads an Omron D6T-44L style thermal sensor.
//
// A measurement is a single command byte (0x4C) written to the device
// followed by a fixed 35-byte response:
//
//	bytes  0-1   PTAT, reference temperature register
//	bytes  2-33  PX[0..15], one register per channel, ascending
//	byte   34    not interpreted
//
// Each register is a little-endian 16-bit word and is passed through as a
// raw integer; no unit conversion is done here.
package d6t
