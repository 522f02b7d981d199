package fleet

import "encoding/json"

// TelemetryMessage is one inbound telemetry or v2v_status frame. Every
// field except the vehicle id is optional; pointers distinguish "absent"
// from an explicit zero or false, which must be applied.
//
// The control process abbreviates some numeric field names depending on
// its build. Both spellings decode to the same logical field; the full
// name wins if a frame somehow carries both.
type TelemetryMessage struct {
	VehicleID string `json:"vehicle_id"`

	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	Theta    *float64 `json:"theta,omitempty"`
	Th       *float64 `json:"th,omitempty"`
	Velocity *float64 `json:"velocity,omitempty"`
	V        *float64 `json:"v,omitempty"`
	Throttle *float64 `json:"throttle,omitempty"`
	Thr      *float64 `json:"thr,omitempty"`
	Steering *float64 `json:"steering,omitempty"`
	St       *float64 `json:"st,omitempty"`

	Battery  *float64 `json:"battery,omitempty"`
	GPSValid *bool    `json:"gps_valid,omitempty"`

	// State is the raw state-machine label, stored verbatim.
	State *string `json:"state,omitempty"`

	V2VActive *bool `json:"v2v_active,omitempty"`
	V2VPeers  *int  `json:"v2v_peers,omitempty"`

	PlatoonRole     *string `json:"platoon_role,omitempty"`
	PlatoonPosition *int    `json:"platoon_position,omitempty"`
	PlatoonLeaderID *int    `json:"leader_id,omitempty"`

	ActiveController *string `json:"active_controller,omitempty"`
	ActiveObserver   *string `json:"active_observer,omitempty"`

	PerceptionActive *bool `json:"perception_active,omitempty"`
}

// DecodeTelemetry parses a raw telemetry/v2v_status frame.
func DecodeTelemetry(payload []byte) (*TelemetryMessage, error) {
	var msg TelemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func coalesce(full, abbreviated *float64) *float64 {
	if full != nil {
		return full
	}
	return abbreviated
}

func (m *TelemetryMessage) theta() *float64    { return coalesce(m.Theta, m.Th) }
func (m *TelemetryMessage) velocity() *float64 { return coalesce(m.Velocity, m.V) }
func (m *TelemetryMessage) throttle() *float64 { return coalesce(m.Throttle, m.Thr) }
func (m *TelemetryMessage) steering() *float64 { return coalesce(m.Steering, m.St) }

// Connectivity values carried by vehicle_status frames.
const (
	ConnectivityConnected    = "connected"
	ConnectivityDisconnected = "disconnected"
)

// StatusMessage is one inbound vehicle_status frame.
type StatusMessage struct {
	VehicleID string `json:"vehicle_id"`
	Status    string `json:"status"`
	IP        string `json:"ip,omitempty"`
	Port      int    `json:"port,omitempty"`
}

// DecodeStatus parses a raw vehicle_status frame.
func DecodeStatus(payload []byte) (*StatusMessage, error) {
	var msg StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
