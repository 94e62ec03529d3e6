package domain

import "time"

// Channel event names.
const (
	EventLocationUpdate   = "location-update"
	EventHeartbeatRequest = "heartbeat-request"
)

// ChannelMessage is the envelope exchanged on the live topic.
type ChannelMessage struct {
	Event  string         `json:"event"`
	Sender string         `json:"sender,omitempty"`
	Packet *TrackerPacket `json:"packet,omitempty"`
}

// Presence announces a participant on the live topic.
type Presence struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	SessionID   string    `json:"session_id"`
	OnlineAt    time.Time `json:"online_at"`
}
