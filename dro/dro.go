// Package dro reads DOSBox raw OPL captures (.dro) into a list of timed
// register writes.
package dro

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const signature = "DBRAWOPL"

// v2 header layout
const (
	v2HeaderSize        = 26
	v2MaxCodemap        = 128
	v2FormatInterleaved = 0
)

// v1 header: signature(8) + version(4) + lengthMS(4) + lengthBytes(4) + hardware(1)
const v1HeaderSize = 21

// v1 command bytes
const (
	v1Delay8  = 0x00
	v1Delay16 = 0x01
	v1Bank0   = 0x02
	v1Bank1   = 0x03
	v1Escape  = 0x04
)

var (
	// ErrBadSignature is returned when the data does not start with DBRAWOPL.
	ErrBadSignature = errors.New("not a DRO capture")
	// ErrUnsupportedVersion is returned for versions other than 0.1 and 2.0.
	ErrUnsupportedVersion = errors.New("unsupported DRO version")
	// ErrTruncated is returned when the data ends before the header says it should.
	ErrTruncated = errors.New("DRO capture truncated")
)

// Hardware is the chip configuration a capture was recorded from.
type Hardware int

const (
	HardwareOPL2 Hardware = iota
	HardwareDualOPL2
	HardwareOPL3
)

func (h Hardware) String() string {
	switch h {
	case HardwareOPL2:
		return "OPL2"
	case HardwareDualOPL2:
		return "Dual OPL2"
	case HardwareOPL3:
		return "OPL3"
	}
	return fmt.Sprintf("Hardware(%d)", int(h))
}

// Event is one register write. Reg carries the bank in bit 8.
type Event struct {
	Time uint32 // Milliseconds from the start of the capture
	Reg  uint32
	Val  uint8
}

// Capture is a parsed DRO file.
type Capture struct {
	Major, Minor uint16
	Hardware     Hardware
	LengthMS     uint32 // Length from the header
	Duration     uint32 // Sum of all delays, including trailing ones
	Events       []Event
}

// Parse decodes a version 0.1 or 2.0 capture.
func Parse(data []byte) (*Capture, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: %d byte header", ErrTruncated, len(data))
	}
	if string(data[0:8]) != signature {
		return nil, ErrBadSignature
	}

	c := &Capture{
		Major: binary.LittleEndian.Uint16(data[8:10]),
		Minor: binary.LittleEndian.Uint16(data[10:12]),
	}
	var err error
	switch {
	case c.Major == 2 && c.Minor == 0:
		err = c.parseV2(data)
	case c.Major == 0 && c.Minor == 1:
		err = c.parseV1(data)
	default:
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, c.Major, c.Minor)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Capture) parseV2(data []byte) error {
	if len(data) < v2HeaderSize {
		return fmt.Errorf("%w: %d byte v2 header", ErrTruncated, len(data))
	}
	pairs := binary.LittleEndian.Uint32(data[12:16])
	c.LengthMS = binary.LittleEndian.Uint32(data[16:20])
	switch data[20] {
	case 0:
		c.Hardware = HardwareOPL2
	case 1:
		c.Hardware = HardwareDualOPL2
	case 2:
		c.Hardware = HardwareOPL3
	default:
		return fmt.Errorf("unknown hardware type %d", data[20])
	}
	if data[21] != v2FormatInterleaved {
		return fmt.Errorf("%w: data format %d", ErrUnsupportedVersion, data[21])
	}
	if data[22] != 0 {
		return fmt.Errorf("%w: compression %d", ErrUnsupportedVersion, data[22])
	}
	shortDelay := data[23]
	longDelay := data[24]
	mapLen := int(data[25])
	if mapLen > v2MaxCodemap {
		return fmt.Errorf("codemap length %d exceeds %d", mapLen, v2MaxCodemap)
	}

	pos := v2HeaderSize
	if len(data) < pos+mapLen {
		return fmt.Errorf("%w: codemap", ErrTruncated)
	}
	codemap := data[pos : pos+mapLen]
	pos += mapLen

	if uint64(len(data)-pos) < uint64(pairs)*2 {
		return fmt.Errorf("%w: %d pairs declared, %d bytes left", ErrTruncated, pairs, len(data)-pos)
	}

	c.Events = make([]Event, 0, pairs)
	var now uint32
	for i := uint32(0); i < pairs; i++ {
		index, val := data[pos], data[pos+1]
		pos += 2
		switch index {
		case shortDelay:
			now += uint32(val) + 1
		case longDelay:
			now += (uint32(val) + 1) << 8
		default:
			code := int(index & 0x7f)
			if code >= mapLen {
				return fmt.Errorf("codemap index %d out of range at pair %d", code, i)
			}
			reg := uint32(codemap[code])
			if index&0x80 != 0 {
				reg |= 0x100
			}
			c.Events = append(c.Events, Event{Time: now, Reg: reg, Val: val})
		}
	}
	c.Duration = now
	return nil
}

func (c *Capture) parseV1(data []byte) error {
	if len(data) < v1HeaderSize {
		return fmt.Errorf("%w: %d byte v1 header", ErrTruncated, len(data))
	}
	c.LengthMS = binary.LittleEndian.Uint32(data[12:16])
	length := binary.LittleEndian.Uint32(data[16:20])
	switch data[20] {
	case 0:
		c.Hardware = HardwareOPL2
	case 1:
		c.Hardware = HardwareOPL3
	case 2:
		c.Hardware = HardwareDualOPL2
	default:
		return fmt.Errorf("unknown hardware type %d", data[20])
	}

	// Early captures store the hardware type in one byte, later ones in
	// four with no version change. A zero in the next three bytes means
	// they are the padding of the four byte form.
	pos := v1HeaderSize
	if len(data) >= pos+3 && (data[pos] == 0 || data[pos+1] == 0 || data[pos+2] == 0) {
		pos += 3
	}
	if uint64(len(data)-pos) < uint64(length) {
		return fmt.Errorf("%w: %d data bytes declared, %d left", ErrTruncated, length, len(data)-pos)
	}
	body := data[pos : pos+int(length)]

	// need fails unless n operand bytes follow the command at i.
	need := func(i, n int) error {
		if i+n >= len(body) {
			return fmt.Errorf("%w: command 0x%02X at offset %d", ErrTruncated, body[i], i)
		}
		return nil
	}

	var now, bank uint32
	for i := 0; i < len(body); i++ {
		cmd := body[i]
		switch cmd {
		case v1Delay8:
			if err := need(i, 1); err != nil {
				return err
			}
			now += uint32(body[i+1]) + 1
			i++
		case v1Delay16:
			if err := need(i, 2); err != nil {
				return err
			}
			now += uint32(binary.LittleEndian.Uint16(body[i+1:i+3])) + 1
			i += 2
		case v1Bank0:
			bank = 0
		case v1Bank1:
			bank = 0x100
		case v1Escape:
			if err := need(i, 2); err != nil {
				return err
			}
			c.Events = append(c.Events, Event{Time: now, Reg: bank | uint32(body[i+1]), Val: body[i+2]})
			i += 2
		default:
			if err := need(i, 1); err != nil {
				return err
			}
			c.Events = append(c.Events, Event{Time: now, Reg: bank | uint32(cmd), Val: body[i+1]})
			i++
		}
	}
	c.Duration = now
	return nil
}

// Length returns the playing time in milliseconds, preferring the header
// value when it covers every event.
func (c *Capture) Length() uint32 {
	if c.LengthMS > c.Duration {
		return c.LengthMS
	}
	return c.Duration
}
