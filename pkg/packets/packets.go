package packets

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
	"github.com/StoreStation/VibeShitBot/pkg/inventory"
	"github.com/StoreStation/VibeShitBot/pkg/nbt"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

// Packet is a decoded clientbound or encodable serverbound packet.
type Packet interface {
	Kind() Kind
}

// Unhandled carries a frame the codec has no decoder for, untouched.
type Unhandled struct {
	Stage protocol.State
	ID    int32
	Data  []byte
}

func (Unhandled) Kind() Kind { return KindUnhandled }

// Block faces, as sent in digging and placement.
const (
	FaceBottom int8 = iota
	FaceTop
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

// Hands.
const (
	HandMain int32 = 0
	HandOff  int32 = 1
)

// Player digging statuses.
const (
	DigStart int32 = iota
	DigCancel
	DigFinish
	DigDropStack
	DigDropItem
	DigShootArrow
	DigSwapHands
)

// Entity actions.
const (
	ActionStartSneaking int32 = iota
	ActionStopSneaking
	ActionLeaveBed
	ActionStartSprinting
	ActionStopSprinting
)

// Interact entity types.
const (
	InteractUse int32 = iota
	InteractAttack
	InteractAt
)

// Client status actions.
const (
	StatusRespawn int32 = iota
	StatusRequestStats
)

// Click window modes.
const (
	ClickModePickup int32 = iota
	ClickModeQuickMove
	ClickModeSwap
	ClickModeClone
	ClickModeThrow
	ClickModeDrag
	ClickModeDoubleClick
)

// Combat events.
const (
	CombatEnter int32 = iota
	CombatEnd
	CombatEntityDead
)

// Title actions, numbered as in the 1.16 Title packet.
const (
	TitleSetTitle int32 = iota
	TitleSetSubtitle
	TitleSetActionBar
	TitleSetTimes
	TitleHide
	TitleReset
)

// --- login, clientbound ---

type LoginDisconnect struct {
	Reason chat.Message
}

type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

// LoginSuccess ends the login stage. Before 1.16 the UUID arrives as a
// hyphenated string and is parsed into the same field.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

type SetCompression struct {
	Threshold int32
}

type LoginPluginRequest struct {
	MessageID int32
	Channel   string
	Data      []byte
}

// --- play, clientbound ---

type SpawnLivingEntity struct {
	EntityID  int32
	UUID      uuid.UUID
	Type      int32
	Position  mgl64.Vec3
	Yaw       int8
	Pitch     int8
	HeadPitch int8
	Velocity  [3]int16
}

type SpawnPlayer struct {
	EntityID int32
	UUID     uuid.UUID
	Position mgl64.Vec3
	Yaw      int8
	Pitch    int8
}

type AckPlayerDigging struct {
	X, Y, Z    int32
	State      int32
	Status     int32
	Successful bool
}

type BlockBreakAnimation struct {
	EntityID int32
	X, Y, Z  int32
	Stage    int8
}

type BlockChange struct {
	X, Y, Z int32
	State   int32
}

// Chat positions.
const (
	ChatPositionChat   int8 = 0
	ChatPositionSystem int8 = 1
	ChatPositionHotbar int8 = 2
)

type ChatMessage struct {
	Message  chat.Message
	Position int8
	Sender   uuid.UUID
}

type TabMatch struct {
	Match   string
	Tooltip *chat.Message
}

type TabComplete struct {
	TransactionID int32
	Start         int32
	Length        int32
	Matches       []TabMatch
}

type WindowConfirmation struct {
	WindowID int8
	Action   int16
	Accepted bool
}

type CloseWindow struct {
	WindowID uint8
}

// WindowItems replaces a window's contents. StateID and Carried are only
// sent from 1.17.1 on; Carried is nil before that.
type WindowItems struct {
	WindowID uint8
	StateID  int32
	Slots    []inventory.Slot
	Carried  *inventory.Slot
}

type WindowProperty struct {
	WindowID uint8
	Property int16
	Value    int16
}

type SetSlot struct {
	WindowID int8
	StateID  int32
	Slot     int16
	Item     inventory.Slot
}

type Disconnect struct {
	Reason chat.Message
}

type UnloadChunk struct {
	X, Z int32
}

type KeepAlive struct {
	ID int64
}

// ChunkData keeps the packet body undecoded; see world.Column.
type ChunkData struct {
	X, Z   int32
	Full   bool
	Format world.Format
	Raw    []byte
}

type JoinGame struct {
	EntityID         int32
	Hardcore         bool
	Gamemode         uint8
	PreviousGamemode int8
	WorldNames       []string
	DimensionCodec   *nbt.Compound
	Dimension        *nbt.Compound
	WorldName        string
	HashedSeed       int64
	MaxPlayers       int32
	ViewDistance     int32
	ReducedDebugInfo bool
	RespawnScreen    bool
	Debug            bool
	Flat             bool
}

type EntityPosition struct {
	EntityID   int32
	DX, DY, DZ int16
	OnGround   bool
}

type EntityPositionRotation struct {
	EntityID   int32
	DX, DY, DZ int16
	Yaw        int8
	Pitch      int8
	OnGround   bool
}

type EntityRotation struct {
	EntityID int32
	Yaw      int8
	Pitch    int8
	OnGround bool
}

type OpenWindow struct {
	WindowID int32
	Type     int32
	Title    chat.Message
}

type Ping struct {
	ID int32
}

// CombatEvent covers both the 1.16 combined packet and the 1.17 death event,
// which decodes as Event CombatEntityDead.
type CombatEvent struct {
	Event    int32
	Duration int32
	PlayerID int32
	EntityID int32
	Message  chat.Message
}

// Title covers the 1.16 combined packet and the five 1.17 title packets,
// each of which decodes to one Action. Text is set for the three text
// actions and the timings, in ticks, for TitleSetTimes.
type Title struct {
	Action  int32
	Text    chat.Message
	FadeIn  int32
	Stay    int32
	FadeOut int32
}

type PlayerPositionLook struct {
	Position   mgl64.Vec3
	Yaw        float32
	Pitch      float32
	Flags      uint8
	TeleportID int32
	Dismount   bool
}

type Respawn struct {
	Dimension        *nbt.Compound
	WorldName        string
	HashedSeed       int64
	Gamemode         uint8
	PreviousGamemode int8
	Debug            bool
	Flat             bool
	CopyMetadata     bool
}

// MultiBlockChange carries packed records for one chunk section; see
// world.UnpackBlockRecord.
type MultiBlockChange struct {
	SectionX, SectionY, SectionZ int32
	SuppressLightUpdates         bool
	Records                      []int64
}

type HeldItemChange struct {
	Slot int8
}

type UpdateHealth struct {
	Health     float32
	Food       int32
	Saturation float32
}

type TimeUpdate struct {
	WorldAge  int64
	TimeOfDay int64
}

type NBTQueryResponse struct {
	TransactionID int32
	NBT           *nbt.Compound
}

type EntityTeleport struct {
	EntityID int32
	Position mgl64.Vec3
	Yaw      int8
	Pitch    int8
	OnGround bool
}

// --- serverbound ---

type Handshake struct {
	ProtocolVersion int32
	Address         string
	Port            uint16
	NextState       protocol.State
}

type LoginStart struct {
	Name string
}

type LoginPluginResponse struct {
	MessageID  int32
	Successful bool
	Data       []byte
}

type TeleportConfirm struct {
	TeleportID int32
}

type QueryBlockNBT struct {
	TransactionID int32
	X, Y, Z       int32
}

type SendChat struct {
	Message string
}

type ClientStatus struct {
	Action int32
}

// ClientSettings. DisableTextFiltering is only written from 1.17 on.
type ClientSettings struct {
	Locale               string
	ViewDistance         int8
	ChatMode             int32
	ChatColors           bool
	SkinParts            uint8
	MainHand             int32
	DisableTextFiltering bool
}

// DefaultClientSettings matches a vanilla client with every skin layer on.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		Locale:       "en_US",
		ViewDistance: 2,
		ChatColors:   true,
		SkinParts:    0x7f,
		MainHand:     1,
	}
}

type RequestTabComplete struct {
	TransactionID int32
	Text          string
}

type ConfirmWindow struct {
	WindowID int8
	Action   int16
	Accepted bool
}

type ChangedSlot struct {
	Slot int16
	Item inventory.Slot
}

// ClickWindow has three layouts. Before 1.17 it carries Action and the
// clicked item; 1.17 replaces both with Changed and Carried; 1.17.1 adds
// StateID.
type ClickWindow struct {
	WindowID uint8
	StateID  int32
	Slot     int16
	Button   int8
	Action   int16
	Mode     int32
	Clicked  inventory.Slot
	Changed  []ChangedSlot
	Carried  inventory.Slot
}

type CloseContainer struct {
	WindowID uint8
}

type PluginMessage struct {
	Channel string
	Data    []byte
}

// InteractEntity. Target is only sent for InteractAt, Hand for InteractUse
// and InteractAt.
type InteractEntity struct {
	EntityID int32
	Type     int32
	Target   [3]float32
	Hand     int32
	Sneaking bool
}

type KeepAliveResponse struct {
	ID int64
}

type PlayerPosition struct {
	Position mgl64.Vec3
	OnGround bool
}

type PlayerPositionRotation struct {
	Position mgl64.Vec3
	Yaw      float32
	Pitch    float32
	OnGround bool
}

type PlayerRotation struct {
	Yaw      float32
	Pitch    float32
	OnGround bool
}

type PlayerDigging struct {
	Status  int32
	X, Y, Z int32
	Face    int8
}

type EntityAction struct {
	EntityID  int32
	Action    int32
	JumpBoost int32
}

type Pong struct {
	ID int32
}

type SetHeldItem struct {
	Slot int16
}

type PlayerBlockPlacement struct {
	Hand        int32
	X, Y, Z     int32
	Face        int32
	Cursor      [3]float32
	InsideBlock bool
}

type UseItem struct {
	Hand int32
}

func (LoginDisconnect) Kind() Kind        { return KindLoginDisconnect }
func (EncryptionRequest) Kind() Kind      { return KindEncryptionRequest }
func (LoginSuccess) Kind() Kind           { return KindLoginSuccess }
func (SetCompression) Kind() Kind         { return KindSetCompression }
func (LoginPluginRequest) Kind() Kind     { return KindLoginPluginRequest }
func (SpawnLivingEntity) Kind() Kind      { return KindSpawnLivingEntity }
func (SpawnPlayer) Kind() Kind            { return KindSpawnPlayer }
func (AckPlayerDigging) Kind() Kind       { return KindAckPlayerDigging }
func (BlockBreakAnimation) Kind() Kind    { return KindBlockBreakAnimation }
func (BlockChange) Kind() Kind            { return KindBlockChange }
func (ChatMessage) Kind() Kind            { return KindChatMessage }
func (TabComplete) Kind() Kind            { return KindTabComplete }
func (WindowConfirmation) Kind() Kind     { return KindWindowConfirmation }
func (CloseWindow) Kind() Kind            { return KindCloseWindow }
func (WindowItems) Kind() Kind            { return KindWindowItems }
func (WindowProperty) Kind() Kind         { return KindWindowProperty }
func (SetSlot) Kind() Kind                { return KindSetSlot }
func (Disconnect) Kind() Kind             { return KindDisconnect }
func (UnloadChunk) Kind() Kind            { return KindUnloadChunk }
func (KeepAlive) Kind() Kind              { return KindKeepAlive }
func (ChunkData) Kind() Kind              { return KindChunkData }
func (JoinGame) Kind() Kind               { return KindJoinGame }
func (EntityPosition) Kind() Kind         { return KindEntityPosition }
func (EntityPositionRotation) Kind() Kind { return KindEntityPositionRot }
func (EntityRotation) Kind() Kind         { return KindEntityRotation }
func (OpenWindow) Kind() Kind             { return KindOpenWindow }
func (Ping) Kind() Kind                   { return KindPing }
func (CombatEvent) Kind() Kind            { return KindCombatEvent }
func (Title) Kind() Kind                  { return KindTitle }
func (PlayerPositionLook) Kind() Kind     { return KindPlayerPositionLook }
func (Respawn) Kind() Kind                { return KindRespawn }
func (MultiBlockChange) Kind() Kind       { return KindMultiBlockChange }
func (HeldItemChange) Kind() Kind         { return KindHeldItemChange }
func (UpdateHealth) Kind() Kind           { return KindUpdateHealth }
func (TimeUpdate) Kind() Kind             { return KindTimeUpdate }
func (NBTQueryResponse) Kind() Kind       { return KindNBTQueryResponse }
func (EntityTeleport) Kind() Kind         { return KindEntityTeleport }

func (Handshake) Kind() Kind              { return KindHandshake }
func (LoginStart) Kind() Kind             { return KindLoginStart }
func (LoginPluginResponse) Kind() Kind    { return KindLoginPluginResponse }
func (TeleportConfirm) Kind() Kind        { return KindTeleportConfirm }
func (QueryBlockNBT) Kind() Kind          { return KindQueryBlockNBT }
func (SendChat) Kind() Kind               { return KindSendChat }
func (ClientStatus) Kind() Kind           { return KindClientStatus }
func (ClientSettings) Kind() Kind         { return KindClientSettings }
func (RequestTabComplete) Kind() Kind     { return KindRequestTabComplete }
func (ConfirmWindow) Kind() Kind          { return KindConfirmWindow }
func (ClickWindow) Kind() Kind            { return KindClickWindow }
func (CloseContainer) Kind() Kind         { return KindCloseContainer }
func (PluginMessage) Kind() Kind          { return KindPluginMessage }
func (InteractEntity) Kind() Kind         { return KindInteractEntity }
func (KeepAliveResponse) Kind() Kind      { return KindKeepAliveResponse }
func (PlayerPosition) Kind() Kind         { return KindPlayerPosition }
func (PlayerPositionRotation) Kind() Kind { return KindPlayerPositionRot }
func (PlayerRotation) Kind() Kind         { return KindPlayerRotation }
func (PlayerDigging) Kind() Kind          { return KindPlayerDigging }
func (EntityAction) Kind() Kind           { return KindEntityAction }
func (Pong) Kind() Kind                   { return KindPong }
func (SetHeldItem) Kind() Kind            { return KindSetHeldItem }
func (PlayerBlockPlacement) Kind() Kind   { return KindPlayerBlockPlacement }
func (UseItem) Kind() Kind                { return KindUseItem }
