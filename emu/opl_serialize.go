package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

const (
	chipSerializeVersion = 1
	// Per-operator serialization size:
	// waveIndex(4) + waveAdd(4) + waveCurrent(4) + chanData(4) + freqMul(4) +
	// vibrato(4) + sustainLevel(4) + totalLevel(4) + currentLevel(4) +
	// volume(4) + attackAdd(4) + decayAdd(4) + releaseAdd(4) + rateIndex(4) +
	// rateZero(1) + keyOnBits(1) + reg20(1) + reg40(1) + reg60(1) + reg80(1) +
	// regE0(1) + waveform(1) + state(1) + tremoloMask(1) + vibStrength(1) + ksr(1) = 68
	oplOperatorSerializeSize = 68
	// Per-channel: chanData(4) + old(8) + regB0(1) + regC0(1) = 14.
	// Feedback, pan masks and synth mode are rebuilt from regC0 and the
	// chip globals.
	oplChannelSerializeSize = 14
	// Global state:
	// rate(4) + lfoCounter(4) + noiseCounter(4) + noiseValue(4) +
	// vibratoIndex(1) + tremoloIndex(1) + vibratoSign(1) + vibratoShift(1) +
	// tremoloValue(1) + vibratoStrength(1) + tremoloStrength(1) +
	// waveFormMask(1) + opl3Active(1) + reg08(1) + reg104(1) + regBD(1) = 28
	oplGlobalSerializeSize = 28
	// ChipSerializeSize is the total bytes needed for Chip serialization.
	// version(1) + 36 operators * 68 + 18 channels * 14 + global(28) = 2729
	ChipSerializeSize = 1 + 36*oplOperatorSerializeSize + 18*oplChannelSerializeSize + oplGlobalSerializeSize

	// Offsets of fields checked before a state is loaded
	opChanDataOffset = 12
	opWaveformOffset = 14*4 + 7
	opStateOffset    = 14*4 + 8
	opKsrOffset      = 14*4 + 11
	chanBase         = 1 + 36*oplOperatorSerializeSize
	globalBase       = chanBase + 18*oplChannelSerializeSize
	vibratoIdxOffset = globalBase + 16
	tremoloIdxOffset = globalBase + 17
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eOPLState\x00\x00\x00"
	dualStateMagic  = "eOPLDual\x00\x00\x00\x00"
	stateHeaderSize = 20 // magic(12) + version(2) + reserved(2) + dataCRC(4)
	// start(8) + delay(8) + counter(1) + enabled(1) + overflow(1) + masked(1) = 20
	timerSerializeSize = 20
	// HandlerSerializeSize is the total bytes of a Handler save state:
	// header + chip + 2 timers + generated(8) + model(1).
	HandlerSerializeSize = stateHeaderSize + ChipSerializeSize + 2*timerSerializeSize + 8 + 1
	// DualSerializeSize is the total bytes of a DualOPL2 save state.
	DualSerializeSize = stateHeaderSize + 2*ChipSerializeSize
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func putU32(buf []byte, offset int, v uint32) int {
	binary.LittleEndian.PutUint32(buf[offset:], v)
	return offset + 4
}

func getU32(buf []byte, offset int) (uint32, int) {
	return binary.LittleEndian.Uint32(buf[offset:]), offset + 4
}

// Serialize writes chip state to buf. buf must be at least ChipSerializeSize bytes.
func (c *Chip) Serialize(buf []byte) error {
	if len(buf) < ChipSerializeSize {
		return errors.New("OPL serialize buffer too small")
	}

	offset := 0

	buf[offset] = chipSerializeVersion
	offset++

	for ch := range c.ch {
		for op := range c.ch[ch].op {
			offset = serializeOperator(&c.ch[ch].op[op], buf, offset)
		}
	}

	for ch := range c.ch {
		offset = serializeChannel(&c.ch[ch], buf, offset)
	}

	offset = putU32(buf, offset, c.rates.rate)
	offset = putU32(buf, offset, c.lfoCounter)
	offset = putU32(buf, offset, c.noiseCounter)
	offset = putU32(buf, offset, c.noiseValue)
	for _, v := range []uint8{
		c.vibratoIndex, c.tremoloIndex, uint8(c.vibratoSign), c.vibratoShift,
		c.tremoloValue, c.vibratoStrength, c.tremoloStrength,
		c.waveFormMask, c.opl3Active, c.reg08, c.reg104, c.regBD,
	} {
		buf[offset] = v
		offset++
	}

	return nil
}

// Deserialize reads chip state from buf. The state must have been saved
// at the chip's current sample rate.
func (c *Chip) Deserialize(buf []byte) error {
	if err := c.checkState(buf); err != nil {
		return err
	}

	offset := 1 // Version, checked above
	for ch := range c.ch {
		for op := range c.ch[ch].op {
			offset = deserializeOperator(&c.ch[ch].op[op], buf, offset)
		}
	}

	for ch := range c.ch {
		offset = deserializeChannel(&c.ch[ch], buf, offset)
	}

	offset += 4 // Rate, checked above
	c.lfoCounter, offset = getU32(buf, offset)
	c.noiseCounter, offset = getU32(buf, offset)
	c.noiseValue, offset = getU32(buf, offset)
	c.vibratoIndex = buf[offset]
	c.tremoloIndex = buf[offset+1]
	c.vibratoSign = int8(buf[offset+2])
	c.vibratoShift = buf[offset+3]
	c.tremoloValue = buf[offset+4]
	c.vibratoStrength = buf[offset+5]
	c.tremoloStrength = buf[offset+6]
	c.waveFormMask = buf[offset+7]
	c.opl3Active = buf[offset+8]
	c.reg08 = buf[offset+9]
	c.reg104 = buf[offset+10]
	c.regBD = buf[offset+11]

	// Rebuild what the registers determine
	for ci := range c.ch {
		c.ch[ci].feedback = feedbackShift(c.ch[ci].regC0)
		c.deriveChannel(ci)
	}

	return nil
}

// checkState reports whether buf can be loaded into the chip without
// touching it.
func (c *Chip) checkState(buf []byte) error {
	if len(buf) < ChipSerializeSize {
		return errors.New("OPL deserialize buffer too small")
	}
	if buf[0] > chipSerializeVersion {
		return errors.New("unsupported OPL state version")
	}
	if rate := binary.LittleEndian.Uint32(buf[globalBase:]); rate != c.rates.rate {
		return errors.New("OPL state was saved at a different sample rate")
	}
	return validateChipState(buf)
}

// validateChipState checks every field that is later used as a table
// index, so a loaded state can never index out of range.
func validateChipState(buf []byte) error {
	for i := 0; i < 36; i++ {
		op := buf[1+i*oplOperatorSerializeSize:]
		chanData := binary.LittleEndian.Uint32(op[opChanDataOffset:])
		switch {
		case op[opStateOffset] > stateAttack,
			op[opWaveformOffset] >= uint8(len(waveBaseTable)),
			op[opKsrOffset] > 15,
			chanData>>shiftKeyCode > 15:
			return errors.New("OPL state is corrupted")
		}
	}
	for i := 0; i < 18; i++ {
		// F-number and block use the low 13 bits of the frequency word
		chanData := binary.LittleEndian.Uint32(buf[chanBase+i*oplChannelSerializeSize:])
		if chanData&0xe000 != 0 || chanData>>shiftKeyCode > 15 {
			return errors.New("OPL state is corrupted")
		}
	}
	if buf[vibratoIdxOffset] >= 4*uint8(len(vibratoTable)) || buf[tremoloIdxOffset] >= tremoloTableSize {
		return errors.New("OPL state is corrupted")
	}
	return nil
}

// serializeOperator writes operator state. Field order matches
// oplOperatorSerializeSize. The wave table position is rebuilt from the
// waveform on load.
func serializeOperator(op *oplOperator, buf []byte, offset int) int {
	for _, v := range []uint32{
		op.waveIndex, op.waveAdd, op.waveCurrent, op.chanData, op.freqMul, op.vibrato,
		uint32(op.sustainLevel), uint32(op.totalLevel), op.currentLevel, uint32(op.volume),
		op.attackAdd, op.decayAdd, op.releaseAdd, op.rateIndex,
	} {
		offset = putU32(buf, offset, v)
	}
	for _, v := range []uint8{
		op.rateZero, op.keyOnBits, op.reg20, op.reg40, op.reg60, op.reg80,
		op.regE0, op.waveform, op.state, op.tremoloMask, op.vibStrength, op.ksr,
	} {
		buf[offset] = v
		offset++
	}
	return offset
}

func deserializeOperator(op *oplOperator, buf []byte, offset int) int {
	var v uint32
	op.waveIndex, offset = getU32(buf, offset)
	op.waveAdd, offset = getU32(buf, offset)
	op.waveCurrent, offset = getU32(buf, offset)
	op.chanData, offset = getU32(buf, offset)
	op.freqMul, offset = getU32(buf, offset)
	op.vibrato, offset = getU32(buf, offset)
	v, offset = getU32(buf, offset)
	op.sustainLevel = int32(v)
	v, offset = getU32(buf, offset)
	op.totalLevel = int32(v)
	op.currentLevel, offset = getU32(buf, offset)
	v, offset = getU32(buf, offset)
	op.volume = int32(v)
	op.attackAdd, offset = getU32(buf, offset)
	op.decayAdd, offset = getU32(buf, offset)
	op.releaseAdd, offset = getU32(buf, offset)
	op.rateIndex, offset = getU32(buf, offset)

	op.rateZero = buf[offset]
	op.keyOnBits = buf[offset+1]
	op.reg20 = buf[offset+2]
	op.reg40 = buf[offset+3]
	op.reg60 = buf[offset+4]
	op.reg80 = buf[offset+5]
	op.regE0 = buf[offset+6]
	op.setWaveform(buf[offset+7])
	op.state = buf[offset+8]
	op.tremoloMask = buf[offset+9]
	op.vibStrength = buf[offset+10]
	op.ksr = buf[offset+11]
	return offset + 12
}

func serializeChannel(ch *oplChannel, buf []byte, offset int) int {
	offset = putU32(buf, offset, ch.chanData)
	offset = putU32(buf, offset, uint32(ch.old[0]))
	offset = putU32(buf, offset, uint32(ch.old[1]))
	buf[offset] = ch.regB0
	buf[offset+1] = ch.regC0
	return offset + 2
}

func deserializeChannel(ch *oplChannel, buf []byte, offset int) int {
	var v uint32
	ch.chanData, offset = getU32(buf, offset)
	v, offset = getU32(buf, offset)
	ch.old[0] = int32(v)
	v, offset = getU32(buf, offset)
	ch.old[1] = int32(v)
	ch.regB0 = buf[offset]
	ch.regC0 = buf[offset+1]
	return offset + 2
}

func serializeTimer(t *oplTimer, buf []byte, offset int) int {
	binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(t.start))
	binary.LittleEndian.PutUint64(buf[offset+8:], math.Float64bits(t.delay))
	buf[offset+16] = t.counter
	buf[offset+17] = boolByte(t.enabled)
	buf[offset+18] = boolByte(t.overflow)
	buf[offset+19] = boolByte(t.masked)
	return offset + timerSerializeSize
}

func deserializeTimer(t *oplTimer, buf []byte, offset int) int {
	t.start = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
	t.delay = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset+8:]))
	t.counter = buf[offset+16]
	t.enabled = buf[offset+17] != 0
	t.overflow = buf[offset+18] != 0
	t.masked = buf[offset+19] != 0
	return offset + timerSerializeSize
}

// newState allocates a save state of size bytes with its header filled in.
func newState(magic string, size int) []byte {
	data := make([]byte, size)
	copy(data[0:12], magic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	return data
}

// sealState writes the CRC32 of everything after the header.
func sealState(data []byte) {
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[16:20], dataCRC)
}

// Serialize creates a save state of the chip, its timers and the sample
// position, and returns it as a byte slice.
func (h *Handler) Serialize() ([]byte, error) {
	data := newState(stateMagic, HandlerSerializeSize)

	offset := stateHeaderSize
	if err := h.chip.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += ChipSerializeSize

	offset = serializeTimer(&h.timers.t[0], data, offset)
	offset = serializeTimer(&h.timers.t[1], data, offset)
	binary.LittleEndian.PutUint64(data[offset:], h.generated)
	data[offset+8] = uint8(h.model)

	sealState(data)
	return data, nil
}

// Deserialize restores a save state made by Serialize.
func (h *Handler) Deserialize(data []byte) error {
	if err := VerifyState(data); err != nil {
		return err
	}
	if string(data[0:12]) != stateMagic {
		return errors.New("save state is not for a single chip")
	}
	if Model(data[HandlerSerializeSize-1]) != h.model {
		return errors.New("save state is for a different chip model")
	}

	offset := stateHeaderSize
	if err := h.chip.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += ChipSerializeSize

	offset = deserializeTimer(&h.timers.t[0], data, offset)
	offset = deserializeTimer(&h.timers.t[1], data, offset)
	h.generated = binary.LittleEndian.Uint64(data[offset:])

	return nil
}

// Serialize creates a save state of both chips.
func (d *DualOPL2) Serialize() ([]byte, error) {
	data := newState(dualStateMagic, DualSerializeSize)
	offset := stateHeaderSize
	for _, c := range d.chips {
		if err := c.Serialize(data[offset:]); err != nil {
			return nil, err
		}
		offset += ChipSerializeSize
	}
	sealState(data)
	return data, nil
}

// Deserialize restores a save state made by DualOPL2.Serialize.
func (d *DualOPL2) Deserialize(data []byte) error {
	if err := VerifyState(data); err != nil {
		return err
	}
	if string(data[0:12]) != dualStateMagic {
		return errors.New("save state is not for a dual OPL2")
	}
	// Both chips are checked first so a bad second chip leaves the
	// first one untouched
	first := data[stateHeaderSize:]
	second := first[ChipSerializeSize:]
	if err := d.chips[0].checkState(first); err != nil {
		return err
	}
	if err := d.chips[1].checkState(second); err != nil {
		return err
	}
	if err := d.chips[0].Deserialize(first); err != nil {
		return err
	}
	return d.chips[1].Deserialize(second)
}

// VerifyState checks if a Handler or DualOPL2 save state is valid
// without loading it.
func VerifyState(data []byte) error {
	if len(data) < stateHeaderSize {
		return errors.New("save state too short")
	}

	var size int
	switch string(data[0:12]) {
	case stateMagic:
		size = HandlerSerializeSize
	case dualStateMagic:
		size = DualSerializeSize
	default:
		return errors.New("invalid save state magic")
	}
	if len(data) < size {
		return errors.New("save state too short")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[16:20])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:size])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	return nil
}
