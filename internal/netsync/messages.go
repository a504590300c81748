// Package netsync is the client side of the game server connection:
// authoritative entity snapshots come in, move requests go out.
//
// Control messages travel as JSON text frames wrapped in an Envelope.
// State syncs may also arrive as msgpack binary frames carrying a bare
// Sync, using the same field names as the JSON form.
package netsync

import (
	"encoding/json"

	"isoclient/internal/geometry"
)

// Message types.
const (
	TypeWelcome = "welcome"
	TypeSync    = "sync"
	TypeMove    = "player:move"
)

// StatusDisconnected marks an entity whose owner left; the client despawns it.
const StatusDisconnected = "disconnected"

// Envelope frames every text message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Welcome tells the client which entity it controls.
type Welcome struct {
	ID       string         `json:"id"`
	Position geometry.Point `json:"position"`
	Layer    int            `json:"layer"`
}

// Snapshot is the server's view of one entity.
type Snapshot struct {
	ID               string          `json:"id"`
	Position         geometry.Point  `json:"position"`
	Destination      *geometry.Point `json:"desiredPosition,omitempty"`
	Layer            int             `json:"layer"`
	ConnectionStatus string          `json:"connectionStatus"`
}

// Disconnected reports whether the entity should be removed.
func (s Snapshot) Disconnected() bool {
	return s.ConnectionStatus == StatusDisconnected
}

// Sync is one batch of snapshots.
type Sync struct {
	Entities []Snapshot `json:"entities"`
}

// Update is a decoded server message. Exactly one field is set.
type Update struct {
	Welcome *Welcome
	Sync    *Sync
}
