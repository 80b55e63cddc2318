package packets

import "github.com/StoreStation/VibeShitBot/pkg/protocol"

// Kind names a packet independently of its wire id.
type Kind string

// KindUnhandled marks frames passed through undecoded.
const KindUnhandled Kind = "unhandled"

// Clientbound kinds.
const (
	KindLoginDisconnect     Kind = "login_disconnect"
	KindEncryptionRequest   Kind = "encryption_request"
	KindLoginSuccess        Kind = "login_success"
	KindSetCompression      Kind = "set_compression"
	KindLoginPluginRequest  Kind = "login_plugin_request"
	KindSpawnLivingEntity   Kind = "spawn_living_entity"
	KindSpawnPlayer         Kind = "spawn_player"
	KindAckPlayerDigging    Kind = "acknowledge_player_digging"
	KindBlockBreakAnimation Kind = "block_break_animation"
	KindBlockChange         Kind = "block_change"
	KindChatMessage         Kind = "chat_message"
	KindTabComplete         Kind = "tab_complete"
	KindWindowConfirmation  Kind = "window_confirmation"
	KindCloseWindow         Kind = "close_window"
	KindWindowItems         Kind = "window_items"
	KindWindowProperty      Kind = "window_property"
	KindSetSlot             Kind = "set_slot"
	KindDisconnect          Kind = "disconnect"
	KindUnloadChunk         Kind = "unload_chunk"
	KindKeepAlive           Kind = "keep_alive"
	KindChunkData           Kind = "chunk_data"
	KindJoinGame            Kind = "join_game"
	KindEntityPosition      Kind = "entity_position"
	KindEntityPositionRot   Kind = "entity_position_and_rotation"
	KindEntityRotation      Kind = "entity_rotation"
	KindOpenWindow          Kind = "open_window"
	KindPing                Kind = "ping"
	KindCombatEvent         Kind = "combat_event"
	KindDeathCombatEvent    Kind = "death_combat_event"
	KindPlayerPositionLook  Kind = "player_position_and_look"
	KindRespawn             Kind = "respawn"
	KindMultiBlockChange    Kind = "multi_block_change"
	KindHeldItemChange      Kind = "held_item_change"
	KindUpdateHealth        Kind = "update_health"
	KindTimeUpdate          Kind = "time_update"
	KindNBTQueryResponse    Kind = "nbt_query_response"
	KindEntityTeleport      Kind = "entity_teleport"
	KindTitle               Kind = "title"
	KindClearTitles         Kind = "clear_titles"
	KindSetActionBarText    Kind = "set_action_bar_text"
	KindSetTitleSubtitle    Kind = "set_title_subtitle"
	KindSetTitleText        Kind = "set_title_text"
	KindSetTitleTimes       Kind = "set_title_times"
)

// Serverbound kinds.
const (
	KindHandshake            Kind = "handshake"
	KindLoginStart           Kind = "login_start"
	KindLoginPluginResponse  Kind = "login_plugin_response"
	KindTeleportConfirm      Kind = "teleport_confirm"
	KindQueryBlockNBT        Kind = "query_block_nbt"
	KindSendChat             Kind = "send_chat"
	KindClientStatus         Kind = "client_status"
	KindClientSettings       Kind = "client_settings"
	KindRequestTabComplete   Kind = "request_tab_complete"
	KindConfirmWindow        Kind = "confirm_window"
	KindClickWindow          Kind = "click_window"
	KindCloseContainer       Kind = "close_container"
	KindPluginMessage        Kind = "plugin_message"
	KindInteractEntity       Kind = "interact_entity"
	KindKeepAliveResponse    Kind = "keep_alive_response"
	KindPlayerPosition       Kind = "player_position"
	KindPlayerPositionRot    Kind = "player_position_and_rotation"
	KindPlayerRotation       Kind = "player_rotation"
	KindPlayerDigging        Kind = "player_digging"
	KindEntityAction         Kind = "entity_action"
	KindPong                 Kind = "pong"
	KindSetHeldItem          Kind = "set_held_item"
	KindPlayerBlockPlacement Kind = "player_block_placement"
	KindUseItem              Kind = "use_item"
)

var handshakeServerbound = map[Kind]int32{
	KindHandshake: 0x00,
}

var loginClientbound = map[int32]Kind{
	0x00: KindLoginDisconnect,
	0x01: KindEncryptionRequest,
	0x02: KindLoginSuccess,
	0x03: KindSetCompression,
	0x04: KindLoginPluginRequest,
}

var loginServerbound = map[Kind]int32{
	KindLoginStart:          0x00,
	KindLoginPluginResponse: 0x02,
}

// 1.16.2 - 1.16.5
var playClientbound751 = map[int32]Kind{
	0x02: KindSpawnLivingEntity,
	0x04: KindSpawnPlayer,
	0x07: KindAckPlayerDigging,
	0x08: KindBlockBreakAnimation,
	0x0B: KindBlockChange,
	0x0E: KindChatMessage,
	0x0F: KindTabComplete,
	0x11: KindWindowConfirmation,
	0x12: KindCloseWindow,
	0x13: KindWindowItems,
	0x14: KindWindowProperty,
	0x15: KindSetSlot,
	0x19: KindDisconnect,
	0x1C: KindUnloadChunk,
	0x1F: KindKeepAlive,
	0x20: KindChunkData,
	0x24: KindJoinGame,
	0x27: KindEntityPosition,
	0x28: KindEntityPositionRot,
	0x29: KindEntityRotation,
	0x2D: KindOpenWindow,
	0x31: KindCombatEvent,
	0x34: KindPlayerPositionLook,
	0x39: KindRespawn,
	0x3B: KindMultiBlockChange,
	0x3F: KindHeldItemChange,
	0x49: KindUpdateHealth,
	0x4E: KindTimeUpdate,
	0x4F: KindTitle,
	0x54: KindNBTQueryResponse,
	0x56: KindEntityTeleport,
}

var playServerbound751 = map[Kind]int32{
	KindTeleportConfirm:      0x00,
	KindQueryBlockNBT:        0x01,
	KindSendChat:             0x03,
	KindClientStatus:         0x04,
	KindClientSettings:       0x05,
	KindRequestTabComplete:   0x06,
	KindConfirmWindow:        0x07,
	KindClickWindow:          0x09,
	KindCloseContainer:       0x0A,
	KindPluginMessage:        0x0B,
	KindInteractEntity:       0x0E,
	KindKeepAliveResponse:    0x10,
	KindPlayerPosition:       0x12,
	KindPlayerPositionRot:    0x13,
	KindPlayerRotation:       0x14,
	KindPlayerDigging:        0x1B,
	KindEntityAction:         0x1C,
	KindSetHeldItem:          0x25,
	KindPlayerBlockPlacement: 0x2E,
	KindUseItem:              0x2F,
}

// 1.17 - 1.17.1
var playClientbound755 = map[int32]Kind{
	0x02: KindSpawnLivingEntity,
	0x04: KindSpawnPlayer,
	0x08: KindAckPlayerDigging,
	0x09: KindBlockBreakAnimation,
	0x0C: KindBlockChange,
	0x0F: KindChatMessage,
	0x10: KindClearTitles,
	0x11: KindTabComplete,
	0x13: KindCloseWindow,
	0x14: KindWindowItems,
	0x15: KindWindowProperty,
	0x16: KindSetSlot,
	0x1A: KindDisconnect,
	0x1D: KindUnloadChunk,
	0x21: KindKeepAlive,
	0x22: KindChunkData,
	0x26: KindJoinGame,
	0x29: KindEntityPosition,
	0x2A: KindEntityPositionRot,
	0x2B: KindEntityRotation,
	0x2E: KindOpenWindow,
	0x30: KindPing,
	0x35: KindDeathCombatEvent,
	0x38: KindPlayerPositionLook,
	0x3D: KindRespawn,
	0x3F: KindMultiBlockChange,
	0x41: KindSetActionBarText,
	0x48: KindHeldItemChange,
	0x52: KindUpdateHealth,
	0x57: KindSetTitleSubtitle,
	0x58: KindTimeUpdate,
	0x59: KindSetTitleText,
	0x5A: KindSetTitleTimes,
	0x5F: KindNBTQueryResponse,
	0x61: KindEntityTeleport,
}

var playServerbound755 = map[Kind]int32{
	KindTeleportConfirm:      0x00,
	KindQueryBlockNBT:        0x01,
	KindSendChat:             0x03,
	KindClientStatus:         0x04,
	KindClientSettings:       0x05,
	KindRequestTabComplete:   0x06,
	KindClickWindow:          0x08,
	KindCloseContainer:       0x09,
	KindPluginMessage:        0x0A,
	KindInteractEntity:       0x0D,
	KindKeepAliveResponse:    0x0F,
	KindPlayerPosition:       0x11,
	KindPlayerPositionRot:    0x12,
	KindPlayerRotation:       0x13,
	KindPlayerDigging:        0x1A,
	KindEntityAction:         0x1B,
	KindPong:                 0x1D,
	KindSetHeldItem:          0x25,
	KindPlayerBlockPlacement: 0x2E,
	KindUseItem:              0x2F,
}

type idTables struct {
	clientbound map[int32]Kind
	serverbound map[Kind]int32
}

func playTables(th Thresholds) branches[idTables] {
	return branches[idTables]{
		{since: th.NetherUpdate2, until: th.CavesAndCliffs, fn: idTables{playClientbound751, playServerbound751}},
		{since: th.CavesAndCliffs, until: th.MaxSupported + 1, fn: idTables{playClientbound755, playServerbound755}},
	}
}

// inbound resolves a clientbound id within a stage.
func (c *Codec) inbound(stage protocol.State, id int32) (Kind, bool) {
	var k Kind
	var ok bool
	switch stage {
	case protocol.StateLogin:
		k, ok = loginClientbound[id]
	case protocol.StatePlay:
		k, ok = c.play.clientbound[id]
	}
	return k, ok
}

// outbound resolves a serverbound kind. Kinds are unique across stages.
func (c *Codec) outbound(k Kind) (int32, bool) {
	if id, ok := handshakeServerbound[k]; ok {
		return id, true
	}
	if id, ok := loginServerbound[k]; ok {
		return id, true
	}
	id, ok := c.play.serverbound[k]
	return id, ok
}
