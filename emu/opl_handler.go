package emu

// generateChunk is the largest block rendered in one chip call.
const generateChunk = 512

// MixerSink receives rendered audio. buf holds count mono samples or
// count interleaved stereo frames and is reused once the call returns.
type MixerSink interface {
	AddSamplesMono(count int, buf []int32)
	AddSamplesStereo(count int, buf []int32)
}

// Model selects the chip a Handler presents to software.
type Model uint8

const (
	// ModelOPL2 is a YM3812. Only register bank 0 exists and status bits
	// 1 and 2 read as set.
	ModelOPL2 Model = iota
	// ModelOPL3 is a YMF262. Status bits 1 and 2 read as clear from
	// power on, which is how software tells it apart from an OPL2.
	ModelOPL3
)

// String returns the chip name.
func (m Model) String() string {
	if m == ModelOPL2 {
		return "OPL2"
	}
	return "OPL3"
}

// Handler is the device-facing front of one OPL chip. It owns the chip,
// the status register timers and the render buffer.
type Handler struct {
	model     Model
	chip      *Chip
	timers    oplTimers
	generated uint64 // Frames rendered since Init, the timer time base
	buf       [generateChunk * 2]int32
}

// NewHandler returns a Handler for model initialised for rate.
func NewHandler(model Model, rate uint32) *Handler {
	h := &Handler{model: model}
	h.Init(rate)
	return h
}

// Init builds the tables and resets the chip for rate. It must run
// before any other call. The model is kept.
func (h *Handler) Init(rate uint32) {
	h.chip = NewChip(NewTables(), rate)
	h.timers = oplTimers{}
	h.generated = 0
}

// Model returns the chip model the handler presents.
func (h *Handler) Model() Model {
	return h.model
}

// Chip returns the underlying chip.
func (h *Handler) Chip() *Chip {
	return h.chip
}

// now returns the chip timeline position in milliseconds.
func (h *Handler) now() float64 {
	return float64(h.generated) * 1000 / float64(h.chip.Rate())
}

// WriteAddr decodes an address port write, see Chip.WriteAddr. An OPL2
// has no second bank so its addresses stay below 0x100.
func (h *Handler) WriteAddr(port uint32, val uint8) uint32 {
	if h.model == ModelOPL2 {
		return h.chip.WriteAddr(port&1, val)
	}
	return h.chip.WriteAddr(port, val)
}

// WriteReg applies a register write. Timer registers 0x02-0x04 are
// handled here and never reach the chip. On an OPL2 the bank bit is
// ignored as the address lines for it do not exist.
func (h *Handler) WriteReg(addr uint32, val uint8) {
	if h.model == ModelOPL2 {
		addr &= 0xFF
	}
	if h.timers.write(addr, val, h.now()) {
		return
	}
	h.chip.WriteReg(addr, val)
}

// ReadStatus returns the status port: bit 7 IRQ, bit 6 timer 1 and bit 5
// timer 2 overflow. Bits 1 and 2 read as set on an OPL2 and clear on an
// OPL3 whether or not OPL3 mode has been enabled.
func (h *Handler) ReadStatus() uint8 {
	s := h.timers.status(h.now())
	if h.model == ModelOPL2 {
		s |= 0x06
	}
	return s
}

// Generate renders count frames into sink, mono in OPL2 mode and stereo
// in OPL3 mode, in blocks of at most 512 frames.
func (h *Handler) Generate(sink MixerSink, count int) {
	for count > 0 {
		n := count
		if n > generateChunk {
			n = generateChunk
		}
		if h.chip.OPL3Active() {
			h.chip.GenerateBlock3(n, h.buf[:n*2])
			sink.AddSamplesStereo(n, h.buf[:n*2])
		} else {
			h.chip.GenerateBlock2(n, h.buf[:n])
			sink.AddSamplesMono(n, h.buf[:n])
		}
		h.generated += uint64(n)
		count -= n
	}
}

// Levels writes a 0..1 loudness per register channel (0-17) into dst and
// returns the number written.
func (h *Handler) Levels(dst []float32) int {
	return h.chip.Levels(dst)
}
