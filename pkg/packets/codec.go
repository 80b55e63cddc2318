package packets

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/inventory"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

type decoder func(r *reader) Packet
type encoder func(w *writer, p Packet)

// Codec translates between frames and packets for one protocol version. It
// is immutable after NewCodec and safe for concurrent use.
type Codec struct {
	Version    int32
	Thresholds Thresholds

	play     idTables
	playErr  error
	decoders map[Kind]branches[decoder]
	encoders map[Kind]branches[encoder]
}

// NewCodec builds the tables for version. Login works for any version; play
// packets need Check to pass.
func NewCodec(version int32, th Thresholds) *Codec {
	c := &Codec{Version: version, Thresholds: th}
	c.play, c.playErr = playTables(th).pick(version)
	c.decoders = decoders(th)
	c.encoders = encoders(th)
	return c
}

// Check reports whether the version has play packet ids.
func (c *Codec) Check() error {
	return c.playErr
}

// Decode parses a clientbound frame. Ids without a decoder come back as
// Unhandled with a nil error.
func (c *Codec) Decode(stage protocol.State, p *protocol.Packet) (Packet, error) {
	kind, ok := c.inbound(stage, p.ID)
	if !ok {
		return Unhandled{Stage: stage, ID: p.ID, Data: p.Data}, nil
	}
	bs, ok := c.decoders[kind]
	if !ok {
		return Unhandled{Stage: stage, ID: p.ID, Data: p.Data}, nil
	}
	dec, err := bs.pick(c.Version)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	r := newReader(p.Data)
	pkt := dec(r)
	if r.err != nil {
		return nil, fmt.Errorf("decode %s (0x%02X): %w", kind, p.ID, r.err)
	}
	return pkt, nil
}

// Encode builds the frame for a serverbound packet, passed by value. Packets
// that do not exist at the codec's version fail with
// protocol.ErrUnsupportedVersion.
func (c *Codec) Encode(p Packet) (*protocol.Packet, error) {
	kind := p.Kind()
	id, ok := c.outbound(kind)
	if !ok {
		return nil, fmt.Errorf("encode %s: %w: %d", kind, protocol.ErrUnsupportedVersion, c.Version)
	}
	bs, ok := c.encoders[kind]
	if !ok {
		return nil, fmt.Errorf("encode %s: no encoder", kind)
	}
	enc, err := bs.pick(c.Version)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	var w writer
	enc(&w, p)
	if w.err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, w.err)
	}
	return &protocol.Packet{ID: id, Data: w.buf.Bytes()}, nil
}

func vec3(r *reader) mgl64.Vec3 {
	return mgl64.Vec3{r.f64(), r.f64(), r.f64()}
}

func decoders(th Thresholds) map[Kind]branches[decoder] {
	return map[Kind]branches[decoder]{
		KindLoginDisconnect: always[decoder](func(r *reader) Packet {
			return LoginDisconnect{Reason: r.chat()}
		}),
		KindEncryptionRequest: always[decoder](func(r *reader) Packet {
			return EncryptionRequest{ServerID: r.str(), PublicKey: r.byteArray(), VerifyToken: r.byteArray()}
		}),
		KindLoginSuccess: {
			{until: th.BinaryLoginUUID, fn: func(r *reader) Packet {
				s := r.str()
				p := LoginSuccess{Username: r.str()}
				if r.err == nil {
					id, err := uuid.Parse(s)
					r.fail(err)
					p.UUID = id
				}
				return p
			}},
			{since: th.BinaryLoginUUID, fn: func(r *reader) Packet {
				return LoginSuccess{UUID: r.uuid(), Username: r.str()}
			}},
		},
		KindSetCompression: always[decoder](func(r *reader) Packet {
			return SetCompression{Threshold: r.varint()}
		}),
		KindLoginPluginRequest: always[decoder](func(r *reader) Packet {
			return LoginPluginRequest{MessageID: r.varint(), Channel: r.str(), Data: r.rest()}
		}),

		KindSpawnLivingEntity: always[decoder](func(r *reader) Packet {
			return SpawnLivingEntity{
				EntityID:  r.varint(),
				UUID:      r.uuid(),
				Type:      r.varint(),
				Position:  vec3(r),
				Yaw:       r.i8(),
				Pitch:     r.i8(),
				HeadPitch: r.i8(),
				Velocity:  [3]int16{r.i16(), r.i16(), r.i16()},
			}
		}),
		KindSpawnPlayer: always[decoder](func(r *reader) Packet {
			return SpawnPlayer{EntityID: r.varint(), UUID: r.uuid(), Position: vec3(r), Yaw: r.i8(), Pitch: r.i8()}
		}),
		KindAckPlayerDigging: always[decoder](func(r *reader) Packet {
			var p AckPlayerDigging
			p.X, p.Y, p.Z = r.position()
			p.State = r.varint()
			p.Status = r.varint()
			p.Successful = r.bool()
			return p
		}),
		KindBlockBreakAnimation: always[decoder](func(r *reader) Packet {
			p := BlockBreakAnimation{EntityID: r.varint()}
			p.X, p.Y, p.Z = r.position()
			p.Stage = r.i8()
			return p
		}),
		KindBlockChange: always[decoder](func(r *reader) Packet {
			var p BlockChange
			p.X, p.Y, p.Z = r.position()
			p.State = r.varint()
			return p
		}),
		KindChatMessage: always[decoder](func(r *reader) Packet {
			return ChatMessage{Message: r.chat(), Position: r.i8(), Sender: r.uuid()}
		}),
		KindTabComplete: always[decoder](func(r *reader) Packet {
			p := TabComplete{TransactionID: r.varint(), Start: r.varint(), Length: r.varint()}
			n := r.count()
			for i := 0; i < n && r.err == nil; i++ {
				m := TabMatch{Match: r.str()}
				if r.bool() {
					tip := r.chat()
					m.Tooltip = &tip
				}
				p.Matches = append(p.Matches, m)
			}
			return p
		}),
		KindWindowConfirmation: {
			{until: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return WindowConfirmation{WindowID: r.i8(), Action: r.i16(), Accepted: r.bool()}
			}},
		},
		KindCloseWindow: always[decoder](func(r *reader) Packet {
			return CloseWindow{WindowID: r.u8()}
		}),
		KindWindowItems: {
			{until: th.CavesAndCliffs1, fn: func(r *reader) Packet {
				p := WindowItems{WindowID: r.u8()}
				p.Slots = readSlots(r, int(r.i16()))
				return p
			}},
			{since: th.CavesAndCliffs1, fn: func(r *reader) Packet {
				p := WindowItems{WindowID: r.u8(), StateID: r.varint()}
				p.Slots = readSlots(r, r.count())
				carried := r.slot()
				p.Carried = &carried
				return p
			}},
		},
		KindWindowProperty: always[decoder](func(r *reader) Packet {
			return WindowProperty{WindowID: r.u8(), Property: r.i16(), Value: r.i16()}
		}),
		KindSetSlot: {
			{until: th.CavesAndCliffs1, fn: func(r *reader) Packet {
				return SetSlot{WindowID: r.i8(), Slot: r.i16(), Item: r.slot()}
			}},
			{since: th.CavesAndCliffs1, fn: func(r *reader) Packet {
				return SetSlot{WindowID: r.i8(), StateID: r.varint(), Slot: r.i16(), Item: r.slot()}
			}},
		},
		KindDisconnect: always[decoder](func(r *reader) Packet {
			return Disconnect{Reason: r.chat()}
		}),
		KindUnloadChunk: always[decoder](func(r *reader) Packet {
			return UnloadChunk{X: r.i32(), Z: r.i32()}
		}),
		KindKeepAlive: always[decoder](func(r *reader) Packet {
			return KeepAlive{ID: r.i64()}
		}),
		KindChunkData: {
			{until: th.CavesAndCliffs, fn: func(r *reader) Packet {
				raw := r.all()
				return ChunkData{X: r.i32(), Z: r.i32(), Full: r.bool(), Format: world.FormatBitmask, Raw: raw}
			}},
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				raw := r.all()
				return ChunkData{X: r.i32(), Z: r.i32(), Full: true, Format: world.FormatBitSet, Raw: raw}
			}},
		},
		KindJoinGame: always[decoder](func(r *reader) Packet {
			p := JoinGame{
				EntityID:         r.i32(),
				Hardcore:         r.bool(),
				Gamemode:         r.u8(),
				PreviousGamemode: r.i8(),
			}
			n := r.count()
			for i := 0; i < n && r.err == nil; i++ {
				p.WorldNames = append(p.WorldNames, r.str())
			}
			p.DimensionCodec = r.nbt()
			p.Dimension = r.nbt()
			p.WorldName = r.str()
			p.HashedSeed = r.i64()
			p.MaxPlayers = r.varint()
			p.ViewDistance = r.varint()
			p.ReducedDebugInfo = r.bool()
			p.RespawnScreen = r.bool()
			p.Debug = r.bool()
			p.Flat = r.bool()
			return p
		}),
		KindEntityPosition: always[decoder](func(r *reader) Packet {
			return EntityPosition{EntityID: r.varint(), DX: r.i16(), DY: r.i16(), DZ: r.i16(), OnGround: r.bool()}
		}),
		KindEntityPositionRot: always[decoder](func(r *reader) Packet {
			return EntityPositionRotation{
				EntityID: r.varint(),
				DX:       r.i16(),
				DY:       r.i16(),
				DZ:       r.i16(),
				Yaw:      r.i8(),
				Pitch:    r.i8(),
				OnGround: r.bool(),
			}
		}),
		KindEntityRotation: always[decoder](func(r *reader) Packet {
			return EntityRotation{EntityID: r.varint(), Yaw: r.i8(), Pitch: r.i8(), OnGround: r.bool()}
		}),
		KindOpenWindow: always[decoder](func(r *reader) Packet {
			return OpenWindow{WindowID: r.varint(), Type: r.varint(), Title: r.chat()}
		}),
		KindPing: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return Ping{ID: r.i32()}
			}},
		},
		KindCombatEvent: {
			{until: th.CavesAndCliffs, fn: func(r *reader) Packet {
				p := CombatEvent{Event: r.varint()}
				switch p.Event {
				case CombatEnd:
					p.Duration = r.varint()
					p.EntityID = r.i32()
				case CombatEntityDead:
					p.PlayerID = r.varint()
					p.EntityID = r.i32()
					p.Message = r.chat()
				}
				return p
			}},
		},
		KindDeathCombatEvent: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return CombatEvent{Event: CombatEntityDead, PlayerID: r.varint(), EntityID: r.i32(), Message: r.chat()}
			}},
		},
		KindTitle: {
			{until: th.CavesAndCliffs, fn: func(r *reader) Packet {
				p := Title{Action: r.varint()}
				switch p.Action {
				case TitleSetTitle, TitleSetSubtitle, TitleSetActionBar:
					p.Text = r.chat()
				case TitleSetTimes:
					p.FadeIn, p.Stay, p.FadeOut = r.i32(), r.i32(), r.i32()
				}
				return p
			}},
		},
		KindClearTitles: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				if r.bool() {
					return Title{Action: TitleReset}
				}
				return Title{Action: TitleHide}
			}},
		},
		KindSetActionBarText: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return Title{Action: TitleSetActionBar, Text: r.chat()}
			}},
		},
		KindSetTitleSubtitle: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return Title{Action: TitleSetSubtitle, Text: r.chat()}
			}},
		},
		KindSetTitleText: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return Title{Action: TitleSetTitle, Text: r.chat()}
			}},
		},
		KindSetTitleTimes: {
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return Title{Action: TitleSetTimes, FadeIn: r.i32(), Stay: r.i32(), FadeOut: r.i32()}
			}},
		},
		KindPlayerPositionLook: {
			{until: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return PlayerPositionLook{Position: vec3(r), Yaw: r.f32(), Pitch: r.f32(), Flags: r.u8(), TeleportID: r.varint()}
			}},
			{since: th.CavesAndCliffs, fn: func(r *reader) Packet {
				return PlayerPositionLook{Position: vec3(r), Yaw: r.f32(), Pitch: r.f32(), Flags: r.u8(), TeleportID: r.varint(), Dismount: r.bool()}
			}},
		},
		KindRespawn: always[decoder](func(r *reader) Packet {
			return Respawn{
				Dimension:        r.nbt(),
				WorldName:        r.str(),
				HashedSeed:       r.i64(),
				Gamemode:         r.u8(),
				PreviousGamemode: r.i8(),
				Debug:            r.bool(),
				Flat:             r.bool(),
				CopyMetadata:     r.bool(),
			}
		}),
		KindMultiBlockChange: always[decoder](func(r *reader) Packet {
			var p MultiBlockChange
			p.SectionX, p.SectionY, p.SectionZ = world.UnpackSectionPosition(r.i64())
			p.SuppressLightUpdates = r.bool()
			n := r.count()
			for i := 0; i < n && r.err == nil; i++ {
				p.Records = append(p.Records, r.varlong())
			}
			return p
		}),
		KindHeldItemChange: always[decoder](func(r *reader) Packet {
			return HeldItemChange{Slot: r.i8()}
		}),
		KindUpdateHealth: always[decoder](func(r *reader) Packet {
			return UpdateHealth{Health: r.f32(), Food: r.varint(), Saturation: r.f32()}
		}),
		KindTimeUpdate: always[decoder](func(r *reader) Packet {
			return TimeUpdate{WorldAge: r.i64(), TimeOfDay: r.i64()}
		}),
		KindNBTQueryResponse: always[decoder](func(r *reader) Packet {
			return NBTQueryResponse{TransactionID: r.varint(), NBT: r.nbt()}
		}),
		KindEntityTeleport: always[decoder](func(r *reader) Packet {
			return EntityTeleport{EntityID: r.varint(), Position: vec3(r), Yaw: r.i8(), Pitch: r.i8(), OnGround: r.bool()}
		}),
	}
}

func readSlots(r *reader, n int) []inventory.Slot {
	if n < 0 || n > maxArray {
		r.fail(fmt.Errorf("%w: slot count %d", protocol.ErrInvalidEncoding, n))
		return nil
	}
	slots := make([]inventory.Slot, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		slots = append(slots, r.slot())
	}
	return slots
}

func encoders(th Thresholds) map[Kind]branches[encoder] {
	return map[Kind]branches[encoder]{
		KindHandshake: always[encoder](func(w *writer, p Packet) {
			h := p.(Handshake)
			w.varint(h.ProtocolVersion)
			w.str(h.Address)
			w.u16(h.Port)
			w.varint(int32(h.NextState))
		}),
		KindLoginStart: always[encoder](func(w *writer, p Packet) {
			w.str(p.(LoginStart).Name)
		}),
		KindLoginPluginResponse: always[encoder](func(w *writer, p Packet) {
			resp := p.(LoginPluginResponse)
			w.varint(resp.MessageID)
			w.bool(resp.Successful)
			if resp.Successful {
				w.raw(resp.Data)
			}
		}),
		KindTeleportConfirm: always[encoder](func(w *writer, p Packet) {
			w.varint(p.(TeleportConfirm).TeleportID)
		}),
		KindQueryBlockNBT: always[encoder](func(w *writer, p Packet) {
			q := p.(QueryBlockNBT)
			w.varint(q.TransactionID)
			w.position(q.X, q.Y, q.Z)
		}),
		KindSendChat: always[encoder](func(w *writer, p Packet) {
			w.str(p.(SendChat).Message)
		}),
		KindClientStatus: always[encoder](func(w *writer, p Packet) {
			w.varint(p.(ClientStatus).Action)
		}),
		KindClientSettings: {
			{until: th.CavesAndCliffs, fn: func(w *writer, p Packet) {
				writeClientSettings(w, p.(ClientSettings))
			}},
			{since: th.CavesAndCliffs, fn: func(w *writer, p Packet) {
				s := p.(ClientSettings)
				writeClientSettings(w, s)
				w.bool(s.DisableTextFiltering)
			}},
		},
		KindRequestTabComplete: always[encoder](func(w *writer, p Packet) {
			t := p.(RequestTabComplete)
			w.varint(t.TransactionID)
			w.str(t.Text)
		}),
		KindConfirmWindow: {
			{until: th.CavesAndCliffs, fn: func(w *writer, p Packet) {
				c := p.(ConfirmWindow)
				w.i8(c.WindowID)
				w.i16(c.Action)
				w.bool(c.Accepted)
			}},
		},
		KindClickWindow: {
			{until: th.CavesAndCliffs, fn: func(w *writer, p Packet) {
				c := p.(ClickWindow)
				w.u8(c.WindowID)
				w.i16(c.Slot)
				w.i8(c.Button)
				w.i16(c.Action)
				w.varint(c.Mode)
				w.slot(c.Clicked)
			}},
			{since: th.CavesAndCliffs, until: th.CavesAndCliffs1, fn: func(w *writer, p Packet) {
				c := p.(ClickWindow)
				w.u8(c.WindowID)
				writeClickChanges(w, c)
			}},
			{since: th.CavesAndCliffs1, fn: func(w *writer, p Packet) {
				c := p.(ClickWindow)
				w.u8(c.WindowID)
				w.varint(c.StateID)
				writeClickChanges(w, c)
			}},
		},
		KindCloseContainer: always[encoder](func(w *writer, p Packet) {
			w.u8(p.(CloseContainer).WindowID)
		}),
		KindPluginMessage: always[encoder](func(w *writer, p Packet) {
			m := p.(PluginMessage)
			w.str(m.Channel)
			w.raw(m.Data)
		}),
		KindInteractEntity: always[encoder](func(w *writer, p Packet) {
			e := p.(InteractEntity)
			w.varint(e.EntityID)
			w.varint(e.Type)
			if e.Type == InteractAt {
				w.f32(e.Target[0])
				w.f32(e.Target[1])
				w.f32(e.Target[2])
			}
			if e.Type == InteractUse || e.Type == InteractAt {
				w.varint(e.Hand)
			}
			w.bool(e.Sneaking)
		}),
		KindKeepAliveResponse: always[encoder](func(w *writer, p Packet) {
			w.i64(p.(KeepAliveResponse).ID)
		}),
		KindPlayerPosition: always[encoder](func(w *writer, p Packet) {
			m := p.(PlayerPosition)
			w.f64(m.Position.X())
			w.f64(m.Position.Y())
			w.f64(m.Position.Z())
			w.bool(m.OnGround)
		}),
		KindPlayerPositionRot: always[encoder](func(w *writer, p Packet) {
			m := p.(PlayerPositionRotation)
			w.f64(m.Position.X())
			w.f64(m.Position.Y())
			w.f64(m.Position.Z())
			w.f32(m.Yaw)
			w.f32(m.Pitch)
			w.bool(m.OnGround)
		}),
		KindPlayerRotation: always[encoder](func(w *writer, p Packet) {
			m := p.(PlayerRotation)
			w.f32(m.Yaw)
			w.f32(m.Pitch)
			w.bool(m.OnGround)
		}),
		KindPlayerDigging: always[encoder](func(w *writer, p Packet) {
			d := p.(PlayerDigging)
			w.varint(d.Status)
			w.position(d.X, d.Y, d.Z)
			w.i8(d.Face)
		}),
		KindEntityAction: always[encoder](func(w *writer, p Packet) {
			a := p.(EntityAction)
			w.varint(a.EntityID)
			w.varint(a.Action)
			w.varint(a.JumpBoost)
		}),
		KindPong: {
			{since: th.CavesAndCliffs, fn: func(w *writer, p Packet) {
				w.i32(p.(Pong).ID)
			}},
		},
		KindSetHeldItem: always[encoder](func(w *writer, p Packet) {
			w.i16(p.(SetHeldItem).Slot)
		}),
		KindPlayerBlockPlacement: always[encoder](func(w *writer, p Packet) {
			b := p.(PlayerBlockPlacement)
			w.varint(b.Hand)
			w.position(b.X, b.Y, b.Z)
			w.varint(b.Face)
			w.f32(b.Cursor[0])
			w.f32(b.Cursor[1])
			w.f32(b.Cursor[2])
			w.bool(b.InsideBlock)
		}),
		KindUseItem: always[encoder](func(w *writer, p Packet) {
			w.varint(p.(UseItem).Hand)
		}),
	}
}

func writeClientSettings(w *writer, s ClientSettings) {
	w.str(s.Locale)
	w.i8(s.ViewDistance)
	w.varint(s.ChatMode)
	w.bool(s.ChatColors)
	w.u8(s.SkinParts)
	w.varint(s.MainHand)
}

func writeClickChanges(w *writer, c ClickWindow) {
	w.i16(c.Slot)
	w.i8(c.Button)
	w.varint(c.Mode)
	w.varint(int32(len(c.Changed)))
	for _, ch := range c.Changed {
		w.i16(ch.Slot)
		w.slot(ch.Item)
	}
	w.slot(c.Carried)
}
