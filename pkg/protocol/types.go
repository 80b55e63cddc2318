package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxVarIntLen is the widest encoding of a 32-bit VarInt.
	MaxVarIntLen = 5
	// MaxVarLongLen is the widest encoding of a 64-bit VarLong.
	MaxVarLongLen = 10

	// MaxStringLength bounds length prefixes of protocol strings (in bytes).
	MaxStringLength = 32767 * 4
)

func readOneByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

// ReadUvarint reads an unsigned variable-length integer of up to 64 bits.
// It returns the value and the number of bytes consumed.
func ReadUvarint(r io.Reader) (uint64, int, error) {
	var result uint64
	for n := 0; n < MaxVarLongLen; n++ {
		b, err := readOneByte(r)
		if err != nil {
			return 0, n, err
		}
		if n == MaxVarLongLen-1 && b > 1 {
			return 0, n + 1, fmt.Errorf("%w: value overflows 64 bits", ErrMalformedVarint)
		}
		result |= uint64(b&0x7F) << (7 * n)
		if b&0x80 == 0 {
			return result, n + 1, nil
		}
	}
	return 0, MaxVarLongLen, fmt.Errorf("%w: no terminating byte within %d bytes", ErrMalformedVarint, MaxVarLongLen)
}

// PutUvarint encodes v into buf and returns the number of bytes written.
// buf must hold at least MaxVarLongLen bytes.
func PutUvarint(buf []byte, v uint64) int {
	n := 0
	for v&^uint64(0x7F) != 0 {
		buf[n] = byte(v&0x7F) | 0x80
		n++
		v >>= 7
	}
	buf[n] = byte(v)
	return n + 1
}

// AppendUvarint appends the encoding of v to buf.
func AppendUvarint(buf []byte, v uint64) []byte {
	var tmp [MaxVarLongLen]byte
	n := PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// WriteUvarint writes an unsigned variable-length integer.
func WriteUvarint(w io.Writer, v uint64) (int, error) {
	var buf [MaxVarLongLen]byte
	n := PutUvarint(buf[:], v)
	return w.Write(buf[:n])
}

// UvarintSize returns the number of bytes needed to encode v.
func UvarintSize(v uint64) int {
	size := 1
	for v&^uint64(0x7F) != 0 {
		size++
		v >>= 7
	}
	return size
}

// ReadVarInt reads a variable-length integer from the reader.
// Minecraft protocol VarInts are at most 5 bytes.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	for n := 0; n < MaxVarIntLen; n++ {
		b, err := readOneByte(r)
		if err != nil {
			return 0, n, err
		}
		result |= uint32(b&0x7F) << (7 * n)
		if b&0x80 == 0 {
			return int32(result), n + 1, nil
		}
	}
	return 0, MaxVarIntLen, fmt.Errorf("%w: VarInt is too big", ErrMalformedVarint)
}

// WriteVarInt writes a variable-length integer to the writer.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [MaxVarIntLen]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes a VarInt into the buffer and returns the number of bytes written.
func PutVarInt(buf []byte, value int32) int {
	return PutUvarint(buf, uint64(uint32(value)))
}

// VarIntSize returns the number of bytes needed to encode a VarInt.
func VarIntSize(value int32) int {
	return UvarintSize(uint64(uint32(value)))
}

// ReadVarLong reads a variable-length long from the reader.
func ReadVarLong(r io.Reader) (int64, int, error) {
	v, n, err := ReadUvarint(r)
	return int64(v), n, err
}

// WriteVarLong writes a variable-length long to the writer.
func WriteVarLong(w io.Writer, value int64) (int, error) {
	return WriteUvarint(w, uint64(value))
}

// ReadBytes reads exactly n bytes.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative byte count %d", ErrInvalidEncoding, n)
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

// ReadByteArray reads a VarInt-prefixed byte array.
func ReadByteArray(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return ReadBytes(r, int(length))
}

// WriteByteArray writes a VarInt-prefixed byte array.
func WriteByteArray(w io.Writer, b []byte) error {
	if _, err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadString reads a length-prefixed UTF-8 string. The prefix counts bytes,
// not characters.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if length < 0 || length > MaxStringLength {
		return "", fmt.Errorf("%w: string length out of range: %d", ErrInvalidEncoding, length)
	}
	buf := make([]byte, length)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidEncoding)
	}
	return string(buf), nil
}

// WriteString writes a length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	_, err := WriteVarInt(w, int32(len(s)))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// ReadUint16 reads a big-endian unsigned 16-bit integer.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint16 writes a big-endian unsigned 16-bit integer.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func ReadInt16(r io.Reader) (int16, error) {
	v, err := ReadUint16(r)
	return int16(v), err
}

// WriteInt16 writes a big-endian signed 16-bit integer.
func WriteInt16(w io.Writer, v int16) error {
	return WriteUint16(w, uint16(v))
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func WriteInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

// WriteInt64 writes a big-endian signed 64-bit integer.
func WriteInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadFloat32 reads a big-endian 32-bit float.
func ReadFloat32(r io.Reader) (float32, error) {
	v, err := ReadInt32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// WriteFloat32 writes a big-endian 32-bit float.
func WriteFloat32(w io.Writer, v float32) error {
	return WriteInt32(w, int32(math.Float32bits(v)))
}

// ReadFloat64 reads a big-endian 64-bit float.
func ReadFloat64(r io.Reader) (float64, error) {
	v, err := ReadInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// WriteFloat64 writes a big-endian 64-bit float.
func WriteFloat64(w io.Writer, v float64) error {
	return WriteInt64(w, int64(math.Float64bits(v)))
}

// ReadBool reads a boolean.
func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadByte(r)
	return b != 0, err
}

// WriteBool writes a boolean.
func WriteBool(w io.Writer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return WriteByte(w, b)
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	return readOneByte(r)
}

// WriteByte writes a single byte.
func WriteByte(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadInt8 reads a signed byte.
func ReadInt8(r io.Reader) (int8, error) {
	b, err := readOneByte(r)
	return int8(b), err
}

// ReadAngle reads a rotation encoded as 256ths of a full turn and returns it
// in degrees.
func ReadAngle(r io.Reader) (float32, error) {
	b, err := ReadInt8(r)
	if err != nil {
		return 0, err
	}
	return AngleToDegrees(b), nil
}

// WriteAngle writes a rotation given in degrees as 256ths of a full turn.
func WriteAngle(w io.Writer, degrees float32) error {
	return WriteByte(w, byte(DegreesToAngle(degrees)))
}

// AngleToDegrees converts a wire angle to degrees.
func AngleToDegrees(a int8) float32 {
	return float32(a) * 360 / 256
}

// DegreesToAngle converts degrees to a wire angle, wrapping at a full turn.
func DegreesToAngle(degrees float32) int8 {
	return int8(int32(math.Round(float64(degrees)*256/360)) & 0xFF)
}

// ReadUUID reads a 128-bit UUID.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var id uuid.UUID
	_, err := io.ReadFull(r, id[:])
	return id, err
}

// WriteUUID writes a 128-bit UUID.
func WriteUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

// ReadPosition reads a block position packed into an int64
// (x: 26 bits, z: 26 bits, y: 12 bits, all signed).
func ReadPosition(r io.Reader) (x, y, z int32, err error) {
	val, err := ReadInt64(r)
	if err != nil {
		return 0, 0, 0, err
	}
	x = int32(val >> 38)
	y = int32(val << 52 >> 52)
	z = int32(val << 26 >> 38)
	return x, y, z, nil
}

// WritePosition writes a packed block position.
func WritePosition(w io.Writer, x, y, z int32) error {
	val := (int64(x&0x3FFFFFF) << 38) | (int64(z&0x3FFFFFF) << 12) | int64(y&0xFFF)
	return WriteInt64(w, val)
}
