package channel

// MessageKind is the discriminant carried in the "type" field of every
// inbound frame.
type MessageKind string

const (
	// KindTelemetry carries a sparse per-vehicle telemetry update.
	KindTelemetry MessageKind = "telemetry"

	// KindV2VStatus carries periodic V2V/platoon status. The control
	// process multiplexes it over the same shape as telemetry, so it is
	// also fanned out to the telemetry handler set.
	KindV2VStatus MessageKind = "v2v_status"

	// KindVehicleStatus carries connect/disconnect events.
	KindVehicleStatus MessageKind = "vehicle_status"

	// KindAny subscribes to every inbound frame regardless of kind.
	KindAny MessageKind = "*"
)

// Handler consumes an inbound frame. The payload is the raw JSON frame;
// handlers decode the fields they care about. Handlers run on the read
// loop, so frames for one connection are delivered strictly in arrival
// order and a handler must not block.
type Handler func(kind MessageKind, payload []byte)

// kindRoutes maps a wire kind to the subscription categories it fans out
// to. A kind missing from the table reaches wildcard subscribers only.
var kindRoutes = map[MessageKind][]MessageKind{
	KindTelemetry:     {KindTelemetry},
	KindV2VStatus:     {KindV2VStatus, KindTelemetry},
	KindVehicleStatus: {KindVehicleStatus},
}
