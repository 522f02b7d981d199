package fleet

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

// Transition describes one vehicle status change, for downstream eventing.
type Transition struct {
	VehicleID string        `json:"vehicle_id"`
	From      VehicleStatus `json:"from"`
	To        VehicleStatus `json:"to"`
	At        time.Time     `json:"at"`
}

// TransitionListener receives every vehicle status change. Listeners run
// synchronously under the store's mutation path and must not call back
// into the store; hand off to a goroutine or channel for slow work.
type TransitionListener func(Transition)

// Store folds inbound telemetry/status messages into the per-vehicle
// snapshot set and applies the locally-triggered status transitions. It is
// the single mutation path for vehicle state: every write goes through a
// Store method under one mutex.
type Store struct {
	logger log.Logger

	mu          sync.Mutex
	vehicles    map[string]*Vehicle
	logs        logBuffer
	globalEStop bool
	listeners   []TransitionListener

	now func() time.Time
}

// NewStore creates an empty fleet store.
func NewStore(logger log.Logger) *Store {
	if logger == nil {
		logger = log.Std()
	}
	return &Store{
		logger:   logger.WithName("fleet"),
		vehicles: make(map[string]*Vehicle),
		now:      time.Now,
	}
}

// OnTransition registers a listener for vehicle status changes.
func (s *Store) OnTransition(fn TransitionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// setStatusLocked changes a vehicle's status, records the transition in
// the operator log and fans it out to listeners. Caller must hold s.mu.
func (s *Store) setStatusLocked(v *Vehicle, to VehicleStatus) {
	if v.Status == to {
		return
	}
	tr := Transition{VehicleID: v.ID, From: v.Status, To: to, At: s.now()}
	v.Status = to

	sev := SeverityInfo
	if to == StatusDisconnected || to == StatusEmergencyStop {
		sev = SeverityWarn
	}
	s.appendLogLocked(sev, v.ID, fmt.Sprintf("%s: %s -> %s", v.ID, tr.From, tr.To))

	for _, fn := range s.listeners {
		fn(tr)
	}
}

// ApplyTelemetry merges one telemetry/v2v_status message into a vehicle's
// snapshot. Only the fields the message carries are overwritten: presence
// is a defined-check, so explicit zeros and falses are applied, and absent
// fields keep their values. Messages for unknown vehicles are dropped;
// vehicles come into existence through connect-type status messages only.
func (s *Store) ApplyTelemetry(msg *TelemetryMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[msg.VehicleID]
	if !ok {
		s.logger.Debug("telemetry for unknown vehicle dropped", "vehicle", msg.VehicleID)
		return
	}

	t := &v.Telemetry
	if msg.X != nil {
		t.X = *msg.X
	}
	if msg.Y != nil {
		t.Y = *msg.Y
	}
	if p := msg.theta(); p != nil {
		t.Theta = *p
	}
	if p := msg.velocity(); p != nil {
		t.Velocity = *p
	}
	if p := msg.throttle(); p != nil {
		t.Throttle = *p
	}
	if p := msg.steering(); p != nil {
		t.Steering = *p
	}
	if msg.Battery != nil {
		t.Battery = *msg.Battery
	}
	if msg.GPSValid != nil {
		t.GPSValid = *msg.GPSValid
	}
	if msg.State != nil {
		t.RawState = *msg.State
	}
	if msg.V2VActive != nil {
		t.V2VActive = *msg.V2VActive
	}
	if msg.V2VPeers != nil {
		t.V2VPeers = *msg.V2VPeers
	}
	if msg.PlatoonRole != nil {
		t.PlatoonRole = *msg.PlatoonRole
	}
	if msg.PlatoonPosition != nil {
		t.PlatoonPosition = *msg.PlatoonPosition
	}
	if msg.PlatoonLeaderID != nil {
		t.PlatoonLeaderID = *msg.PlatoonLeaderID
	}
	if msg.ActiveController != nil {
		t.ActiveController = *msg.ActiveController
	}
	if msg.ActiveObserver != nil {
		t.ActiveObserver = *msg.ActiveObserver
	}
	if msg.PerceptionActive != nil {
		t.PerceptionActive = *msg.PerceptionActive
	}
	t.UpdatedAt = s.now()
}

// ApplyStatus reconciles one vehicle_status message against the known
// vehicle set. A connect for an unseen id creates the vehicle; a connect
// for a known id moves it to IDLE. A disconnect freezes the snapshot at
// its last-known values and only flips the status; vehicles are never
// removed. A disconnect for an unknown id is a no-op.
func (s *Store) ApplyStatus(msg *StatusMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, known := s.vehicles[msg.VehicleID]

	switch msg.Status {
	case ConnectivityConnected:
		if !known {
			v = newVehicle(msg.VehicleID)
			s.vehicles[msg.VehicleID] = v
			s.appendLogLocked(SeverityInfo, msg.VehicleID,
				fmt.Sprintf("vehicle %s joined the fleet", msg.VehicleID))
			s.logger.Info("vehicle created", "vehicle", msg.VehicleID)
		} else {
			s.setStatusLocked(v, StatusIdle)
		}
		if msg.IP != "" {
			v.IP = msg.IP
		}
		if msg.Port != 0 {
			v.Port = msg.Port
		}

	case ConnectivityDisconnected:
		if !known {
			return
		}
		s.setStatusLocked(v, StatusDisconnected)

	default:
		s.logger.Warn("unrecognized connectivity value", "vehicle", msg.VehicleID, "status", msg.Status)
	}
}

// MarkStarted optimistically flips a vehicle to ACTIVE, ahead of any
// acknowledgment from the control process.
func (s *Store) MarkStarted(id string) {
	s.localTransition(id, StatusActive)
}

// MarkStopped optimistically flips a vehicle to STOPPED.
func (s *Store) MarkStopped(id string) {
	s.localTransition(id, StatusStopped)
}

// MarkEmergencyStopped optimistically flips a vehicle to EMERGENCY_STOP
// and zeroes its target speed.
func (s *Store) MarkEmergencyStopped(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vehicles[id]; ok {
		s.setStatusLocked(v, StatusEmergencyStop)
		v.TargetSpeed = 0
	}
}

func (s *Store) localTransition(id string, to VehicleStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vehicles[id]; ok {
		s.setStatusLocked(v, to)
	}
}

// SetGlobalEmergencyStop engages or releases the fleet-wide e-stop flag.
// Enforcement happens on Tick, not here, so the safety state survives a
// lost acknowledgment: the flag is re-asserted every tick while engaged.
func (s *Store) SetGlobalEmergencyStop(engaged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.globalEStop == engaged {
		return
	}
	s.globalEStop = engaged
	if engaged {
		s.appendLogLocked(SeverityError, "", "global emergency stop engaged")
	} else {
		s.appendLogLocked(SeverityInfo, "", "global emergency stop released")
	}
}

// GlobalEmergencyStop reports whether the fleet-wide e-stop is engaged.
func (s *Store) GlobalEmergencyStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalEStop
}

// Tick runs the per-tick enforcement pass. While the global e-stop is
// engaged, every vehicle not already in EMERGENCY_STOP is forced into it
// and its target speed zeroed. Idempotent per tick.
func (s *Store) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.globalEStop {
		return
	}
	for _, v := range s.vehicles {
		if v.Status != StatusEmergencyStop {
			s.setStatusLocked(v, StatusEmergencyStop)
		}
		v.TargetSpeed = 0
	}
}

// SetDisplayName applies a local-only rename.
func (s *Store) SetDisplayName(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if ok && name != "" {
		v.DisplayName = name
	}
	return ok
}

// SetTargetSpeed records the operator's reference speed.
func (s *Store) SetTargetSpeed(id string, speed float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if ok {
		v.TargetSpeed = speed
	}
	return ok
}

// Selection is a partial update of a vehicle's configuration choices.
// Empty fields are left unchanged.
type Selection struct {
	LongitudinalController string `json:"longitudinal_controller,omitempty"`
	LateralController      string `json:"lateral_controller,omitempty"`
	LocalObserver          string `json:"local_observer,omitempty"`
	FleetObserver          string `json:"fleet_observer,omitempty"`
}

// SetSelection records controller/observer choices. Descriptive only; the
// actual switch is commanded over the channel separately.
func (s *Store) SetSelection(id string, sel Selection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return false
	}
	if sel.LongitudinalController != "" {
		v.LongitudinalController = sel.LongitudinalController
	}
	if sel.LateralController != "" {
		v.LateralController = sel.LateralController
	}
	if sel.LocalObserver != "" {
		v.LocalObserver = sel.LocalObserver
	}
	if sel.FleetObserver != "" {
		v.FleetObserver = sel.FleetObserver
	}
	return true
}

// Get returns a copy of one vehicle.
func (s *Store) Get(id string) (Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return Vehicle{}, false
	}
	return *v, true
}

// Snapshot returns copies of every vehicle, ordered by id.
func (s *Store) Snapshot() []Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of tracked vehicles.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.vehicles)
}

// AppendLog adds an operator-facing log entry.
func (s *Store) AppendLog(sev LogSeverity, vehicleID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(sev, vehicleID, msg)
}

func (s *Store) appendLogLocked(sev LogSeverity, vehicleID, msg string) {
	s.logs.append(LogEntry{
		Message:   msg,
		Severity:  sev,
		VehicleID: vehicleID,
		Time:      s.now(),
	})
}

// Logs returns the retained log entries, newest first.
func (s *Store) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs.list()
}
