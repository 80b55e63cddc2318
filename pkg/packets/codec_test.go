package packets

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/inventory"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

func frame(id int32, build func(w *writer)) *protocol.Packet {
	var w writer
	build(&w)
	return &protocol.Packet{ID: id, Data: w.buf.Bytes()}
}

func codec(t *testing.T, version int32) *Codec {
	t.Helper()
	c := NewCodec(version, DefaultThresholds())
	if err := c.Check(); err != nil {
		t.Fatalf("Check(%d) error: %v", version, err)
	}
	return c
}

func TestCheck(t *testing.T) {
	tests := []struct {
		version int32
		ok      bool
	}{
		{340, false},
		{578, false},
		{750, false},
		{751, true},
		{754, true},
		{755, true},
		{756, true},
		{757, false},
	}
	for _, tt := range tests {
		err := NewCodec(tt.version, DefaultThresholds()).Check()
		if tt.ok && err != nil {
			t.Errorf("Check(%d) error: %v", tt.version, err)
		}
		if !tt.ok && !errors.Is(err, protocol.ErrUnsupportedVersion) {
			t.Errorf("Check(%d) error = %v, want ErrUnsupportedVersion", tt.version, err)
		}
	}
}

func TestLoginSuccessLayouts(t *testing.T) {
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

	binary := frame(0x02, func(w *writer) {
		w.uuid(id)
		w.str("Notch")
	})
	text := frame(0x02, func(w *writer) {
		w.str(id.String())
		w.str("Notch")
	})

	tests := []struct {
		name    string
		version int32
		pkt     *protocol.Packet
	}{
		{"binary uuid", 754, binary},
		{"string uuid", 578, text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCodec(tt.version, DefaultThresholds()).Decode(protocol.StateLogin, tt.pkt)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			want := LoginSuccess{UUID: id, Username: "Notch"}
			if got != want {
				t.Errorf("Decode = %+v, want %+v", got, want)
			}
		})
	}

	// A string uuid read as binary leaves garbage for the username.
	if _, err := codec(t, 754).Decode(protocol.StateLogin, text); err == nil {
		t.Error("string layout decoded at 754 without error")
	}
}

func TestUnhandled(t *testing.T) {
	c := codec(t, 754)
	pkt := &protocol.Packet{ID: 0x7E, Data: []byte{1, 2, 3}}
	got, err := c.Decode(protocol.StatePlay, pkt)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	u, ok := got.(Unhandled)
	if !ok {
		t.Fatalf("Decode = %T, want Unhandled", got)
	}
	if u.ID != 0x7E || !bytes.Equal(u.Data, pkt.Data) || u.Kind() != KindUnhandled {
		t.Errorf("Unhandled = %+v", u)
	}
}

func TestTruncatedPacket(t *testing.T) {
	c := codec(t, 754)
	pkt := frame(0x49, func(w *writer) { w.f32(20) })
	if _, err := c.Decode(protocol.StatePlay, pkt); err == nil {
		t.Error("truncated Update Health decoded without error")
	}
}

func TestWindowItemsLayouts(t *testing.T) {
	slots := []inventory.Slot{inventory.Item(1, 64), {}, inventory.Item(3, 1)}

	old := frame(0x13, func(w *writer) {
		w.u8(0)
		w.i16(int16(len(slots)))
		for _, s := range slots {
			w.slot(s)
		}
	})
	got, err := codec(t, 755).Decode(protocol.StatePlay, &protocol.Packet{ID: 0x14, Data: old.Data})
	if err != nil {
		t.Fatalf("Decode 755 error: %v", err)
	}
	items := got.(WindowItems)
	if !reflect.DeepEqual(items.Slots, slots) || items.Carried != nil {
		t.Errorf("755 WindowItems = %+v", items)
	}

	carried := inventory.Item(9, 2)
	current := frame(0x14, func(w *writer) {
		w.u8(0)
		w.varint(42)
		w.varint(int32(len(slots)))
		for _, s := range slots {
			w.slot(s)
		}
		w.slot(carried)
	})
	got, err = codec(t, 756).Decode(protocol.StatePlay, current)
	if err != nil {
		t.Fatalf("Decode 756 error: %v", err)
	}
	items = got.(WindowItems)
	if items.StateID != 42 || !reflect.DeepEqual(items.Slots, slots) {
		t.Errorf("756 WindowItems = %+v", items)
	}
	if items.Carried == nil || *items.Carried != carried {
		t.Errorf("Carried = %v, want %v", items.Carried, carried)
	}
}

func TestSetSlotStateID(t *testing.T) {
	got, err := codec(t, 756).Decode(protocol.StatePlay, frame(0x16, func(w *writer) {
		w.i8(-1)
		w.varint(7)
		w.i16(-1)
		w.slot(inventory.Item(5, 1))
	}))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	want := SetSlot{WindowID: -1, StateID: 7, Slot: -1, Item: inventory.Item(5, 1)}
	if got != want {
		t.Errorf("SetSlot = %+v, want %+v", got, want)
	}
}

func TestChunkDataFeedsColumn(t *testing.T) {
	tests := []struct {
		name    string
		version int32
		id      int32
		format  world.Format
	}{
		{"1.16 bitmask", 754, 0x20, world.FormatBitmask},
		{"1.17 bitset", 756, 0x22, world.FormatBitSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := world.FlatColumnData(tt.format, -3, 7)
			if err != nil {
				t.Fatalf("FlatColumnData error: %v", err)
			}
			got, err := codec(t, tt.version).Decode(protocol.StatePlay, &protocol.Packet{ID: tt.id, Data: raw})
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			cd := got.(ChunkData)
			if cd.X != -3 || cd.Z != 7 || !cd.Full || cd.Format != tt.format {
				t.Fatalf("ChunkData header = %d,%d full=%v %s", cd.X, cd.Z, cd.Full, cd.Format)
			}

			col := world.NewColumn(cd.X, cd.Z, cd.Format, cd.Full, cd.Raw)
			state, err := col.Block(0, 0, 0)
			if err != nil {
				t.Fatalf("Block error: %v", err)
			}
			if state != world.StateBedrock {
				t.Errorf("Block(0,0,0) = %d, want bedrock", state)
			}
		})
	}
}

func TestMultiBlockChange(t *testing.T) {
	records := []int64{
		world.PackBlockRecord(1, 0, 0, 0),
		world.PackBlockRecord(2, 15, 15, 15),
	}
	got, err := codec(t, 754).Decode(protocol.StatePlay, frame(0x3B, func(w *writer) {
		w.i64(world.PackSectionPosition(-1, 4, 2))
		w.bool(true)
		w.varint(int32(len(records)))
		for _, r := range records {
			protocol.WriteVarLong(&w.buf, r)
		}
	}))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	m := got.(MultiBlockChange)
	if m.SectionX != -1 || m.SectionY != 4 || m.SectionZ != 2 {
		t.Errorf("section = %d,%d,%d, want -1,4,2", m.SectionX, m.SectionY, m.SectionZ)
	}
	if !reflect.DeepEqual(m.Records, records) {
		t.Errorf("Records = %v, want %v", m.Records, records)
	}
}

func TestPlayerPositionLookDismount(t *testing.T) {
	body := func(dismount bool) func(w *writer) {
		return func(w *writer) {
			w.f64(1.5)
			w.f64(64)
			w.f64(-2.5)
			w.f32(90)
			w.f32(10)
			w.u8(0x18)
			w.varint(5)
			if dismount {
				w.bool(true)
			}
		}
	}

	got, err := codec(t, 754).Decode(protocol.StatePlay, frame(0x34, body(false)))
	if err != nil {
		t.Fatalf("Decode 754 error: %v", err)
	}
	want := PlayerPositionLook{Position: mgl64.Vec3{1.5, 64, -2.5}, Yaw: 90, Pitch: 10, Flags: 0x18, TeleportID: 5}
	if got != want {
		t.Errorf("754 = %+v, want %+v", got, want)
	}

	got, err = codec(t, 755).Decode(protocol.StatePlay, frame(0x38, body(true)))
	if err != nil {
		t.Fatalf("Decode 755 error: %v", err)
	}
	want.Dismount = true
	if got != want {
		t.Errorf("755 = %+v, want %+v", got, want)
	}
}

func TestDeathCombatEvent(t *testing.T) {
	got, err := codec(t, 756).Decode(protocol.StatePlay, frame(0x35, func(w *writer) {
		w.varint(12)
		w.i32(-1)
		w.str(`{"text":"fell"}`)
	}))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	ev := got.(CombatEvent)
	if ev.Event != CombatEntityDead || ev.PlayerID != 12 || ev.Message.PlainText() != "fell" {
		t.Errorf("CombatEvent = %+v", ev)
	}
}

func TestTitleLayouts(t *testing.T) {
	text := func(s string) func(*writer) {
		return func(w *writer) { w.str(`{"text":"` + s + `"}`) }
	}
	times := func(w *writer) {
		w.i32(10)
		w.i32(60)
		w.i32(20)
	}
	tests := []struct {
		name     string
		version  int32
		id       int32
		body     func(*writer)
		want     int32
		wantText string
	}{
		{"1.16 title", 754, 0x4F, func(w *writer) { w.varint(TitleSetTitle); text("Hello")(w) }, TitleSetTitle, "Hello"},
		{"1.16 subtitle", 754, 0x4F, func(w *writer) { w.varint(TitleSetSubtitle); text("sub")(w) }, TitleSetSubtitle, "sub"},
		{"1.16 action bar", 754, 0x4F, func(w *writer) { w.varint(TitleSetActionBar); text("bar")(w) }, TitleSetActionBar, "bar"},
		{"1.16 times", 754, 0x4F, func(w *writer) { w.varint(TitleSetTimes); times(w) }, TitleSetTimes, ""},
		{"1.16 hide", 754, 0x4F, func(w *writer) { w.varint(TitleHide) }, TitleHide, ""},
		{"1.16 reset", 754, 0x4F, func(w *writer) { w.varint(TitleReset) }, TitleReset, ""},
		{"1.17 title", 755, 0x59, text("Hello"), TitleSetTitle, "Hello"},
		{"1.17 subtitle", 755, 0x57, text("sub"), TitleSetSubtitle, "sub"},
		{"1.17 action bar", 756, 0x41, text("bar"), TitleSetActionBar, "bar"},
		{"1.17 times", 756, 0x5A, times, TitleSetTimes, ""},
		{"1.17 hide", 755, 0x10, func(w *writer) { w.bool(false) }, TitleHide, ""},
		{"1.17 reset", 755, 0x10, func(w *writer) { w.bool(true) }, TitleReset, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec(t, tt.version).Decode(protocol.StatePlay, frame(tt.id, tt.body))
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			title, ok := got.(Title)
			if !ok {
				t.Fatalf("Decode = %T, want Title", got)
			}
			if title.Action != tt.want || title.Text.PlainText() != tt.wantText {
				t.Errorf("Title = %+v, want action %d text %q", title, tt.want, tt.wantText)
			}
			if tt.want == TitleSetTimes && (title.FadeIn != 10 || title.Stay != 60 || title.FadeOut != 20) {
				t.Errorf("times = %d/%d/%d, want 10/60/20", title.FadeIn, title.Stay, title.FadeOut)
			}
		})
	}
}

func TestEncodeVersionGates(t *testing.T) {
	confirm := ConfirmWindow{WindowID: 1, Action: 2, Accepted: false}
	if _, err := codec(t, 755).Encode(confirm); !errors.Is(err, protocol.ErrUnsupportedVersion) {
		t.Errorf("ConfirmWindow at 755 error = %v, want ErrUnsupportedVersion", err)
	}
	pkt, err := codec(t, 754).Encode(confirm)
	if err != nil {
		t.Fatalf("ConfirmWindow at 754 error: %v", err)
	}
	if pkt.ID != 0x07 || !bytes.Equal(pkt.Data, []byte{1, 0, 2, 0}) {
		t.Errorf("ConfirmWindow = %#x % x", pkt.ID, pkt.Data)
	}

	if _, err := codec(t, 754).Encode(Pong{ID: 1}); !errors.Is(err, protocol.ErrUnsupportedVersion) {
		t.Errorf("Pong at 754 error = %v, want ErrUnsupportedVersion", err)
	}
	pkt, err = codec(t, 755).Encode(Pong{ID: 1})
	if err != nil || pkt.ID != 0x1D {
		t.Errorf("Pong at 755 = %v, %v", pkt, err)
	}
}

func TestClientSettingsTextFiltering(t *testing.T) {
	s := DefaultClientSettings()
	old, err := codec(t, 754).Encode(s)
	if err != nil {
		t.Fatalf("Encode 754 error: %v", err)
	}
	current, err := codec(t, 755).Encode(s)
	if err != nil {
		t.Fatalf("Encode 755 error: %v", err)
	}
	if len(current.Data) != len(old.Data)+1 {
		t.Errorf("755 settings %d bytes, 754 %d; want one extra bool", len(current.Data), len(old.Data))
	}
	if !bytes.HasPrefix(current.Data, old.Data) {
		t.Error("755 settings must extend the 754 layout")
	}

	r := newReader(old.Data)
	if r.str() != "en_US" || r.i8() != 2 || r.varint() != 0 || !r.bool() || r.u8() != 0x7f || r.varint() != 1 {
		t.Error("default settings fields mismatch")
	}
}

func TestClickWindowLayouts(t *testing.T) {
	click := ClickWindow{
		WindowID: 3,
		StateID:  9,
		Slot:     36,
		Button:   0,
		Action:   1,
		Mode:     ClickModePickup,
		Clicked:  inventory.Item(1, 1),
		Changed:  []ChangedSlot{{Slot: 36}},
		Carried:  inventory.Item(1, 1),
	}

	tests := []struct {
		version int32
		id      int32
		read    func(r *reader) bool
	}{
		{754, 0x09, func(r *reader) bool {
			return r.u8() == 3 && r.i16() == 36 && r.i8() == 0 && r.i16() == 1 && r.varint() == 0 && r.slot() == inventory.Item(1, 1)
		}},
		{755, 0x08, func(r *reader) bool {
			return r.u8() == 3 && r.i16() == 36 && r.i8() == 0 && r.varint() == 0 &&
				r.varint() == 1 && r.i16() == 36 && r.slot() == (inventory.Slot{}) && r.slot() == inventory.Item(1, 1)
		}},
		{756, 0x08, func(r *reader) bool {
			return r.u8() == 3 && r.varint() == 9 && r.i16() == 36 && r.i8() == 0 && r.varint() == 0 &&
				r.varint() == 1 && r.i16() == 36 && r.slot() == (inventory.Slot{}) && r.slot() == inventory.Item(1, 1)
		}},
	}
	for _, tt := range tests {
		pkt, err := codec(t, tt.version).Encode(click)
		if err != nil {
			t.Errorf("Encode %d error: %v", tt.version, err)
			continue
		}
		if pkt.ID != tt.id {
			t.Errorf("%d id = %#x, want %#x", tt.version, pkt.ID, tt.id)
		}
		r := newReader(pkt.Data)
		if !tt.read(r) || r.err != nil || r.r.Len() != 0 {
			t.Errorf("%d layout mismatch: % x", tt.version, pkt.Data)
		}
	}
}

func TestInteractEntityOptionalFields(t *testing.T) {
	c := codec(t, 756)
	attack, _ := c.Encode(InteractEntity{EntityID: 5, Type: InteractAttack, Sneaking: true})
	if want := []byte{5, 1, 1}; !bytes.Equal(attack.Data, want) {
		t.Errorf("attack = % x, want % x", attack.Data, want)
	}
	use, _ := c.Encode(InteractEntity{EntityID: 5, Type: InteractUse, Hand: HandOff})
	if want := []byte{5, 0, 1, 0}; !bytes.Equal(use.Data, want) {
		t.Errorf("use = % x, want % x", use.Data, want)
	}
	at, _ := c.Encode(InteractEntity{EntityID: 5, Type: InteractAt})
	if len(at.Data) != 2+12+1+1 {
		t.Errorf("interact at = %d bytes, want 16", len(at.Data))
	}
}

func TestHandshakeEncoding(t *testing.T) {
	pkt, err := NewCodec(756, DefaultThresholds()).Encode(Handshake{
		ProtocolVersion: 756,
		Address:         "localhost",
		Port:            25565,
		NextState:       protocol.StateLogin,
	})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	r := newReader(pkt.Data)
	if pkt.ID != 0 || r.varint() != 756 || r.str() != "localhost" || r.u16() != 25565 || r.varint() != 2 {
		t.Errorf("handshake = % x", pkt.Data)
	}
}
