package packets

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
	"github.com/StoreStation/VibeShitBot/pkg/inventory"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// maxArray bounds element counts read from the wire before allocating.
const maxArray = 1 << 16

// reader keeps the first error and turns every later read into a zero value,
// so a decoder reads its fields in order and checks once at the end.
type reader struct {
	data []byte
	r    *bytes.Reader
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data, r: bytes.NewReader(data)}
}

// all returns the whole packet body regardless of the read position.
func (r *reader) all() []byte {
	return r.data
}

func (r *reader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *reader) varint() int32 {
	if r.err != nil {
		return 0
	}
	v, _, err := protocol.ReadVarInt(r.r)
	r.fail(err)
	return v
}

func (r *reader) varlong() int64 {
	if r.err != nil {
		return 0
	}
	v, _, err := protocol.ReadVarLong(r.r)
	r.fail(err)
	return v
}

func (r *reader) count() int {
	n := r.varint()
	if r.err == nil && (n < 0 || n > maxArray) {
		r.fail(fmt.Errorf("%w: array length %d", protocol.ErrInvalidEncoding, n))
		return 0
	}
	return int(n)
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadByte(r.r)
	r.fail(err)
	return v
}

func (r *reader) i8() int8 { return int8(r.u8()) }

func (r *reader) bool() bool {
	if r.err != nil {
		return false
	}
	v, err := protocol.ReadBool(r.r)
	r.fail(err)
	return v
}

func (r *reader) i16() int16 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadInt16(r.r)
	r.fail(err)
	return v
}

func (r *reader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadUint16(r.r)
	r.fail(err)
	return v
}

func (r *reader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadInt32(r.r)
	r.fail(err)
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadInt64(r.r)
	r.fail(err)
	return v
}

func (r *reader) f32() float32 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadFloat32(r.r)
	r.fail(err)
	return v
}

func (r *reader) f64() float64 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.ReadFloat64(r.r)
	r.fail(err)
	return v
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	v, err := protocol.ReadString(r.r)
	r.fail(err)
	return v
}

func (r *reader) uuid() uuid.UUID {
	if r.err != nil {
		return uuid.Nil
	}
	v, err := protocol.ReadUUID(r.r)
	r.fail(err)
	return v
}

func (r *reader) position() (x, y, z int32) {
	if r.err != nil {
		return 0, 0, 0
	}
	x, y, z, err := protocol.ReadPosition(r.r)
	r.fail(err)
	return x, y, z
}

func (r *reader) byteArray() []byte {
	if r.err != nil {
		return nil
	}
	v, err := protocol.ReadByteArray(r.r)
	r.fail(err)
	return v
}

// rest returns the unread bytes.
func (r *reader) rest() []byte {
	if r.err != nil {
		return nil
	}
	v, err := io.ReadAll(r.r)
	r.fail(err)
	return v
}

func (r *reader) chat() chat.Message {
	raw := r.str()
	if r.err != nil {
		return chat.Message{}
	}
	m, err := chat.Parse(raw)
	r.fail(err)
	return m
}

func (r *reader) nbt() *nbt.Compound {
	if r.err != nil {
		return nil
	}
	v, err := nbt.Read(r.r)
	r.fail(err)
	return v
}

func (r *reader) slot() inventory.Slot {
	if r.err != nil {
		return inventory.Slot{}
	}
	v, err := inventory.ReadSlot(r.r)
	r.fail(err)
	return v
}

// writer is the encoding counterpart. Writes into a bytes.Buffer only fail
// for unencodable values such as bad NBT.
type writer struct {
	buf bytes.Buffer
	err error
}

func (w *writer) fail(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *writer) varint(v int32)     { protocol.WriteVarInt(&w.buf, v) }
func (w *writer) u8(v uint8)         { w.buf.WriteByte(v) }
func (w *writer) i8(v int8)          { w.buf.WriteByte(byte(v)) }
func (w *writer) bool(v bool)        { protocol.WriteBool(&w.buf, v) }
func (w *writer) i16(v int16)        { protocol.WriteInt16(&w.buf, v) }
func (w *writer) u16(v uint16)       { protocol.WriteUint16(&w.buf, v) }
func (w *writer) i32(v int32)        { protocol.WriteInt32(&w.buf, v) }
func (w *writer) i64(v int64)        { protocol.WriteInt64(&w.buf, v) }
func (w *writer) f32(v float32)      { protocol.WriteFloat32(&w.buf, v) }
func (w *writer) f64(v float64)      { protocol.WriteFloat64(&w.buf, v) }
func (w *writer) str(v string)       { w.fail(protocol.WriteString(&w.buf, v)) }
func (w *writer) uuid(v uuid.UUID)   { protocol.WriteUUID(&w.buf, v) }
func (w *writer) raw(v []byte)       { w.buf.Write(v) }
func (w *writer) byteArray(v []byte) { protocol.WriteByteArray(&w.buf, v) }

func (w *writer) position(x, y, z int32) {
	w.fail(protocol.WritePosition(&w.buf, x, y, z))
}

func (w *writer) slot(s inventory.Slot) {
	w.fail(inventory.WriteSlot(&w.buf, s))
}

func (w *writer) nbt(c *nbt.Compound) {
	w.fail(nbt.Write(&w.buf, "", c))
}

func (w *writer) chat(m chat.Message) {
	w.str(m.String())
}
