package channel

// Broadcast is the command target sentinel addressing every vehicle.
const Broadcast = "all"

// Command is one outbound control record. The control process expects a
// single flat JSON object per command: the action name under "type", the
// vehicle id (or Broadcast) under "target", and any action parameters as
// sibling keys. There is no envelope/body nesting.
type Command map[string]any

func newCommand(kind, target string) Command {
	return Command{"type": kind, "target": target}
}

// Kind returns the action name of the command.
func (c Command) Kind() string {
	kind, _ := c["type"].(string)
	return kind
}

// Target returns the vehicle id the command addresses, or Broadcast.
func (c Command) Target() string {
	target, _ := c["target"].(string)
	return target
}

// SetVelocity sets the reference speed in m/s.
func SetVelocity(target string, vRef float64) Command {
	cmd := newCommand("set_velocity", target)
	cmd["v_ref"] = vRef
	return cmd
}

// Start begins autonomous driving.
func Start(target string) Command {
	return newCommand("start", target)
}

// Stop halts autonomous driving.
func Stop(target string) Command {
	return newCommand("stop", target)
}

// EmergencyStop commands an immediate emergency stop.
func EmergencyStop(target string) Command {
	return newCommand("emergency_stop", target)
}

// EnableManualControl hands the vehicle over to teleoperation.
func EnableManualControl(target string) Command {
	return newCommand("enable_manual_control", target)
}

// DisableManualControl returns the vehicle to autonomous control.
func DisableManualControl(target string) Command {
	return newCommand("disable_manual_control", target)
}

// ManualControl sends one teleoperation axis update. Throttle and steering
// are normalized to [-1, 1]; the control process clamps out-of-range values.
func ManualControl(target string, throttle, steering float64) Command {
	cmd := newCommand("manual_control", target)
	cmd["throttle"] = throttle
	cmd["steering"] = steering
	return cmd
}

// SetPerception toggles the perception stack.
func SetPerception(target string, enabled bool) Command {
	cmd := newCommand("set_perception", target)
	cmd["enabled"] = enabled
	return cmd
}

// SetLongitudinalController selects the speed controller.
func SetLongitudinalController(target, controller string) Command {
	cmd := newCommand("set_longitudinal_controller", target)
	cmd["controller"] = controller
	return cmd
}

// SetLateralController selects the steering controller.
func SetLateralController(target, controller string) Command {
	cmd := newCommand("set_lateral_controller", target)
	cmd["controller"] = controller
	return cmd
}

// SetLocalObserver selects the on-vehicle state estimator.
func SetLocalObserver(target, observer string) Command {
	cmd := newCommand("set_local_observer", target)
	cmd["observer"] = observer
	return cmd
}

// SetFleetObserver selects the fleet-level state estimator.
func SetFleetObserver(target, observer string) Command {
	cmd := newCommand("set_fleet_observer", target)
	cmd["observer"] = observer
	return cmd
}

// EnablePlatoonLeader configures the vehicle as a platoon leader.
func EnablePlatoonLeader(target string) Command {
	cmd := newCommand("enable_platoon_leader", target)
	cmd["role"] = "leader"
	return cmd
}

// EnablePlatoonFollower configures the vehicle to follow the given leader
// at the given gap in meters.
func EnablePlatoonFollower(target string, leaderID int, followingDistance float64) Command {
	cmd := newCommand("enable_platoon_follower", target)
	cmd["role"] = "follower"
	cmd["leader_id"] = leaderID
	cmd["following_distance"] = followingDistance
	return cmd
}

// StartPlatoon starts the configured platoon.
func StartPlatoon(target string) Command {
	return newCommand("start_platoon", target)
}

// RequestStatus asks every vehicle to report its status.
func RequestStatus() Command {
	return newCommand("request_status", Broadcast)
}

// SetPath sends an ordered list of waypoint identifiers for the vehicle
// to follow.
func SetPath(target string, waypoints []string) Command {
	cmd := newCommand("set_path", target)
	cmd["waypoints"] = waypoints
	return cmd
}

// SetInitialPose seeds the vehicle's estimator with a pose. When
// calibrateGPS is set the vehicle also recalibrates its GPS offset
// against the given pose.
func SetInitialPose(target string, x, y, theta float64, calibrateGPS bool) Command {
	cmd := newCommand("set_initial_pose", target)
	cmd["x"] = x
	cmd["y"] = y
	cmd["theta"] = theta
	cmd["calibrate_gps"] = calibrateGPS
	return cmd
}
