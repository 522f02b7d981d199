package fleet

import "time"

// VehicleStatus is the ground station's connectivity/activity state for a
// vehicle. It is authoritative from the control process except for the
// optimistic local transitions applied by the Store (start/stop/e-stop).
type VehicleStatus string

const (
	StatusDisconnected  VehicleStatus = "DISCONNECTED"
	StatusInitializing  VehicleStatus = "INITIALIZING"
	StatusIdle          VehicleStatus = "IDLE"
	StatusActive        VehicleStatus = "ACTIVE"
	StatusEmergencyStop VehicleStatus = "EMERGENCY_STOP"
	StatusStopped       VehicleStatus = "STOPPED"
	StatusManual        VehicleStatus = "MANUAL"
)

// Telemetry is the sparse, monotonically-refreshed snapshot per vehicle.
// Inbound messages never replace it wholesale; each message overwrites only
// the fields it carries (see Store.ApplyTelemetry).
type Telemetry struct {
	// Pose in meters / radians.
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`

	// Kinematics. Throttle and steering are normalized to [-1, 1].
	Velocity float64 `json:"velocity"`
	Throttle float64 `json:"throttle"`
	Steering float64 `json:"steering"`

	// Battery percent in [0, 100].
	Battery float64 `json:"battery"`

	GPSValid bool `json:"gps_valid"`

	// RawState is the control process's state-machine label, displayed
	// verbatim. It is deliberately NOT mapped onto VehicleStatus; the two
	// are independent pieces of information.
	RawState string `json:"raw_state,omitempty"`

	V2VActive bool `json:"v2v_active"`
	V2VPeers  int  `json:"v2v_peers"`

	PlatoonRole     string `json:"platoon_role,omitempty"`
	PlatoonPosition int    `json:"platoon_position"`
	PlatoonLeaderID int    `json:"platoon_leader_id"`

	ActiveController string `json:"active_controller,omitempty"`
	ActiveObserver   string `json:"active_observer,omitempty"`

	PerceptionActive bool `json:"perception_active"`

	// UpdatedAt marks the last inbound refresh. Display/staleness only;
	// never used for eviction.
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle is one tracked unit. Vehicles are created on first contact and
// never deleted; a disconnect only flips Status.
type Vehicle struct {
	// ID is externally assigned and stable, format <prefix>-<n>.
	ID string `json:"id"`

	// DisplayName is locally editable and never sent over the channel.
	DisplayName string `json:"display_name"`

	Status VehicleStatus `json:"status"`

	Telemetry Telemetry `json:"telemetry"`

	// TargetSpeed is the operator-set reference in m/s, independent of
	// measured velocity.
	TargetSpeed float64 `json:"target_speed"`

	// Last-applied or pending configuration selections. Descriptive only.
	LongitudinalController string `json:"longitudinal_controller,omitempty"`
	LateralController      string `json:"lateral_controller,omitempty"`
	LocalObserver          string `json:"local_observer,omitempty"`
	FleetObserver          string `json:"fleet_observer,omitempty"`

	// Reported transport endpoint, when the control process includes it.
	IP   string `json:"ip,omitempty"`
	Port int    `json:"port,omitempty"`
}

func newVehicle(id string) *Vehicle {
	return &Vehicle{
		ID:          id,
		DisplayName: id,
		Status:      StatusIdle,
		Telemetry: Telemetry{
			Battery: 100,
		},
	}
}
