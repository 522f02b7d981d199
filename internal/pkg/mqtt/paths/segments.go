// Package paths defines the MQTT topic layout the ground station publishes
// under. The segments are the contract with external ops tooling; changing
// one is a breaking change for every subscriber.
package paths

import "strings"

// All traffic is egress, station -> broker.
const (
	// Events is the topic segment for vehicle status transitions.
	// Payload: one fleet.Transition, JSON encoded.
	// Pattern: {root}/events/{vehicleID}
	Events = "events"

	// Estop is the topic segment for global emergency-stop flag changes.
	// Payload: { "engaged": true/false, "at": ... }
	// Pattern: {root}/estop
	Estop = "estop"
)

// Join assembles a topic from the root and segments, skipping empties so a
// fleet-wide topic needs no trailing separator.
func Join(root string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, root)
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
