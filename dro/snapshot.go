package dro

import (
	"encoding/binary"
	"errors"

	"github.com/user-none/emopl/emu"
)

// snapshotHeaderSize is next(4) + pos(8) + loops(4).
const snapshotHeaderSize = 16

// MaxSnapshotSize is the largest encoded Snapshot of any capture.
const MaxSnapshotSize = snapshotHeaderSize + emu.DualSerializeSize

// SnapshotSize returns the encoded size of a Snapshot for hw.
func SnapshotSize(hw Hardware) int {
	if hw == HardwareDualOPL2 {
		return snapshotHeaderSize + emu.DualSerializeSize
	}
	return snapshotHeaderSize + emu.HandlerSerializeSize
}

// Snapshot is a saved playback point.
type Snapshot struct {
	synth []byte
	next  int
	pos   uint64
	loops int
}

// MarshalBinary encodes the snapshot. The synth state keeps its own
// header and checksum.
func (snap *Snapshot) MarshalBinary() ([]byte, error) {
	data := make([]byte, snapshotHeaderSize+len(snap.synth))
	binary.LittleEndian.PutUint32(data[0:4], uint32(snap.next))
	binary.LittleEndian.PutUint64(data[4:12], snap.pos)
	binary.LittleEndian.PutUint32(data[12:16], uint32(snap.loops))
	copy(data[snapshotHeaderSize:], snap.synth)
	return data, nil
}

// UnmarshalBinary decodes a snapshot made by MarshalBinary.
func (snap *Snapshot) UnmarshalBinary(data []byte) error {
	if err := VerifySnapshot(data); err != nil {
		return err
	}
	snap.next = int(binary.LittleEndian.Uint32(data[0:4]))
	snap.pos = binary.LittleEndian.Uint64(data[4:12])
	snap.loops = int(binary.LittleEndian.Uint32(data[12:16]))
	snap.synth = append(snap.synth[:0], data[snapshotHeaderSize:]...)
	return nil
}

// VerifySnapshot checks an encoded snapshot without loading it.
func VerifySnapshot(data []byte) error {
	if len(data) < snapshotHeaderSize {
		return errors.New("snapshot too short")
	}
	return emu.VerifyState(data[snapshotHeaderSize:])
}

// Save records the synth state and the playback position.
func (s *Sequencer) Save() (*Snapshot, error) {
	state, err := s.synth.Serialize()
	if err != nil {
		return nil, err
	}
	return &Snapshot{synth: state, next: s.next, pos: s.pos, loops: s.loops}, nil
}

// Restore returns playback to a point recorded by Save.
func (s *Sequencer) Restore(snap *Snapshot) error {
	if snap.next > len(s.events) {
		return errors.New("snapshot is from a different capture")
	}
	if snap.next > 0 && s.frameOf(s.events[snap.next-1].Time) > snap.pos {
		return errors.New("snapshot is from a different capture")
	}
	if err := s.synth.Deserialize(snap.synth); err != nil {
		return err
	}
	s.next = snap.next
	s.pos = snap.pos
	s.loops = snap.loops
	return nil
}
