package nbt

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

func sampleCompound() *Compound {
	return NewCompound(
		Field{Name: "byte", Value: int8(-3)},
		Field{Name: "short", Value: int16(1234)},
		Field{Name: "int", Value: int32(-77)},
		Field{Name: "long", Value: int64(1) << 40},
		Field{Name: "float", Value: float32(1.5)},
		Field{Name: "double", Value: 2.25},
		Field{Name: "bytes", Value: []byte{1, 2, 3}},
		Field{Name: "string", Value: "héllo"},
		Field{Name: "list", Value: List{Type: TagInt, Items: []any{int32(1), int32(2)}}},
		Field{Name: "empty", Value: List{Type: TagEnd}},
		Field{Name: "nested", Value: NewCompound(Field{Name: "Damage", Value: int32(5)})},
		Field{Name: "ints", Value: []int32{7, 8}},
		Field{Name: "longs", Value: []int64{-1, 0, 1}},
	)
}

func TestRoundTrip(t *testing.T) {
	original := sampleCompound()

	var buf bytes.Buffer
	if err := Write(&buf, "root", original); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	name, got, err := ReadNamed(&buf)
	if err != nil {
		t.Fatalf("ReadNamed error: %v", err)
	}
	if name != "root" {
		t.Errorf("root name = %q, want %q", name, "root")
	}
	if !reflect.DeepEqual(got, original) {
		t.Errorf("ReadNamed = %+v, want %+v", got, original)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes left unread", buf.Len())
	}
}

func TestFieldOrderPreserved(t *testing.T) {
	c := NewCompound(
		Field{Name: "z", Value: int8(1)},
		Field{Name: "a", Value: int8(2)},
		Field{Name: "m", Value: int8(3)},
	)
	var buf bytes.Buffer
	Write(&buf, "", c)

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	var names []string
	for _, f := range got.Fields {
		names = append(names, f.Name)
	}
	if want := []string{"z", "a", "m"}; !reflect.DeepEqual(names, want) {
		t.Errorf("field order = %v, want %v", names, want)
	}
}

func TestEmptyRoot(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "", nil); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{TagEnd}) {
		t.Errorf("nil compound encoded as %v, want [0]", buf.Bytes())
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if got != nil {
		t.Errorf("Read = %+v, want nil", got)
	}
}

func TestUnknownTag(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"field tag", []byte{TagCompound, 0, 0, 13, 0, 1, 'x'}},
		{"root tag", []byte{TagInt, 0, 0}},
		{"list element tag", []byte{TagCompound, 0, 0, TagList, 0, 1, 'l', 99, 0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if !errors.Is(err, protocol.ErrUnknownTag) {
				t.Errorf("Read error = %v, want ErrUnknownTag", err)
			}
		})
	}
}

func TestInvalidString(t *testing.T) {
	data := []byte{TagCompound, 0, 2, 0xC3, 0x28, TagEnd}
	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, protocol.ErrInvalidEncoding) {
		t.Errorf("Read error = %v, want ErrInvalidEncoding", err)
	}
}

func TestNegativeArrayLength(t *testing.T) {
	data := []byte{TagCompound, 0, 0, TagByteArray, 0, 1, 'b', 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, protocol.ErrInvalidEncoding) {
		t.Errorf("Read error = %v, want ErrInvalidEncoding", err)
	}
}

func TestArrayLongerThanInput(t *testing.T) {
	tests := []struct {
		name string
		tag  byte
	}{
		{"byte array", TagByteArray},
		{"int array", TagIntArray},
		{"long array", TagLongArray},
		{"list", TagList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte{TagCompound, 0, 0, tt.tag, 0, 1, 'a'}
			if tt.tag == TagList {
				data = append(data, TagLong)
			}
			// One million elements announced, a handful of bytes present.
			data = append(data, 0x00, 0x10, 0x00, 0x00, 1, 2, 3, 4, 5, 6, 7, 8, 0)
			_, err := Read(bytes.NewReader(data))
			if !errors.Is(err, protocol.ErrInvalidEncoding) {
				t.Errorf("Read error = %v, want ErrInvalidEncoding", err)
			}
		})
	}
}

func TestArrayFromStream(t *testing.T) {
	var buf bytes.Buffer
	root := NewCompound(Field{Name: "heights", Value: []int64{1, 2, 3}})
	if err := Write(&buf, "", root); err != nil {
		t.Fatal(err)
	}
	// A reader without Len only gets the fixed bound.
	got, err := Read(io.MultiReader(&buf))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if a, ok := got.LongArray("heights"); !ok || !reflect.DeepEqual(a, []int64{1, 2, 3}) {
		t.Errorf("heights = %v, %v", a, ok)
	}
}

func TestAccessors(t *testing.T) {
	c := sampleCompound()

	if v, ok := c.Int("short"); !ok || v != 1234 {
		t.Errorf("Int(short) = %d, %v; want 1234, true", v, ok)
	}
	if v, ok := c.String("string"); !ok || v != "héllo" {
		t.Errorf("String(string) = %q, %v", v, ok)
	}
	if _, ok := c.String("int"); ok {
		t.Error("String(int) should not match an int field")
	}
	nested, ok := c.Compound("nested")
	if !ok {
		t.Fatal("Compound(nested) not found")
	}
	if v, _ := nested.Int("Damage"); v != 5 {
		t.Errorf("nested Damage = %d, want 5", v)
	}
	if a, ok := c.LongArray("longs"); !ok || len(a) != 3 {
		t.Errorf("LongArray(longs) = %v, %v", a, ok)
	}

	c.Set("int", int32(9))
	if v, _ := c.Int("int"); v != 9 {
		t.Errorf("after Set, Int(int) = %d, want 9", v)
	}
	before := c.Len()
	c.Set("new", "x")
	if c.Len() != before+1 {
		t.Errorf("Len after append = %d, want %d", c.Len(), before+1)
	}

	var empty *Compound
	if _, ok := empty.Get("x"); ok {
		t.Error("Get on nil compound should miss")
	}
}

func TestWriteMixedList(t *testing.T) {
	c := NewCompound(Field{Name: "l", Value: List{Type: TagInt, Items: []any{int32(1), "two"}}})
	var buf bytes.Buffer
	if err := Write(&buf, "", c); err == nil {
		t.Error("Write should reject a list with mixed element types")
	}
}
