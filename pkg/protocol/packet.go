package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// State is a connection stage. Packet ids are only meaningful within a stage.
type State int

// Connection states
const (
	StateHandshaking State = 0
	StateStatus      State = 1
	StateLogin       State = 2
	StatePlay        State = 3
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshake"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StatePlay:
		return "play"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// MaxFrameLength is the largest frame a 3-byte VarInt length can describe.
	MaxFrameLength = 2097151
	// MaxUncompressedLength bounds the inflated size of a compressed frame.
	MaxUncompressedLength = 8388608
	// CompressionDisabled is the threshold value meaning frames carry no
	// data-length field.
	CompressionDisabled = -1
)

// Packet represents a Minecraft protocol packet with an ID and payload.
type Packet struct {
	ID   int32
	Data []byte
}

// ReadPacket reads a full uncompressed packet from the reader.
func ReadPacket(r io.Reader) (*Packet, error) {
	return ReadFrame(r, CompressionDisabled)
}

// ReadFrame reads one length-prefixed frame. A negative threshold means
// compression has not been negotiated; otherwise every frame carries a
// data-length VarInt and a zlib body when that length is non-zero.
func ReadFrame(r io.Reader, threshold int) (*Packet, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, fmt.Errorf("packet length too small: %d", length)
	}
	if length > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, length)
	}

	payload := make([]byte, length)
	_, err = io.ReadFull(r, payload)
	if err != nil {
		return nil, err
	}

	if threshold >= 0 {
		payload, err = inflate(payload)
		if err != nil {
			return nil, err
		}
	}

	pr := bytes.NewReader(payload)
	packetID, idLen, err := ReadVarInt(pr)
	if err != nil {
		return nil, err
	}

	return &Packet{
		ID:   packetID,
		Data: payload[idLen:],
	}, nil
}

func inflate(payload []byte) ([]byte, error) {
	pr := bytes.NewReader(payload)
	dataLength, n, err := ReadVarInt(pr)
	if err != nil {
		return nil, err
	}
	if dataLength == 0 {
		return payload[n:], nil
	}
	if dataLength < 0 || dataLength > MaxUncompressedLength {
		return nil, fmt.Errorf("%w: uncompressed length %d", ErrFrameTooLarge, dataLength)
	}

	zr, err := zlib.NewReader(pr)
	if err != nil {
		return nil, fmt.Errorf("open compressed frame: %w", err)
	}
	defer zr.Close()

	inflated := make([]byte, dataLength)
	if _, err := io.ReadFull(zr, inflated); err != nil {
		return nil, fmt.Errorf("inflate frame: %w", err)
	}
	return inflated, nil
}

// WritePacket writes a full uncompressed packet to the writer using a single
// buffered write.
func WritePacket(w io.Writer, p *Packet) error {
	return WriteFrame(w, p, CompressionDisabled)
}

// WriteFrame writes one frame. With a non-negative threshold, bodies at least
// threshold bytes long are zlib-compressed and shorter ones are sent with a
// zero data length.
func WriteFrame(w io.Writer, p *Packet, threshold int) error {
	idSize := VarIntSize(p.ID)
	bodyLen := idSize + len(p.Data)

	if threshold < 0 {
		buf := bytes.NewBuffer(make([]byte, 0, VarIntSize(int32(bodyLen))+bodyLen))
		WriteVarInt(buf, int32(bodyLen))
		WriteVarInt(buf, p.ID)
		buf.Write(p.Data)
		_, err := w.Write(buf.Bytes())
		return err
	}

	if bodyLen < threshold {
		frameLen := int32(1 + bodyLen)
		buf := bytes.NewBuffer(make([]byte, 0, VarIntSize(frameLen)+int(frameLen)))
		WriteVarInt(buf, frameLen)
		WriteVarInt(buf, 0)
		WriteVarInt(buf, p.ID)
		buf.Write(p.Data)
		_, err := w.Write(buf.Bytes())
		return err
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	WriteVarInt(zw, p.ID)
	zw.Write(p.Data)
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress frame: %w", err)
	}

	frameLen := int32(VarIntSize(int32(bodyLen)) + compressed.Len())
	if frameLen > MaxFrameLength {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, frameLen)
	}
	buf := bytes.NewBuffer(make([]byte, 0, VarIntSize(frameLen)+int(frameLen)))
	WriteVarInt(buf, frameLen)
	WriteVarInt(buf, int32(bodyLen))
	buf.Write(compressed.Bytes())
	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalPacket creates a Packet from a packet ID and a builder function.
func MarshalPacket(id int32, builder func(w *bytes.Buffer)) *Packet {
	var buf bytes.Buffer
	builder(&buf)
	return &Packet{
		ID:   id,
		Data: buf.Bytes(),
	}
}
