package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ChannelConnectivityStatus tracks the channel lifecycle state
	// (1 = connected, 0 = anything else).
	ChannelConnectivityStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundstation_channel_connectivity_status",
			Help: "The connectivity status of the vehicle control channel (1=connected, 0=not connected).",
		},
	)

	// ReconnectAttemptsTotal counts automatic reconnect attempts.
	ReconnectAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groundstation_channel_reconnect_attempts_total",
			Help: "Total number of automatic reconnect attempts on the control channel.",
		},
	)

	// MessagesReceivedTotal counts inbound frames by discriminant.
	MessagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundstation_messages_received_total",
			Help: "Total number of inbound channel messages, by message type.",
		},
		[]string{"type"},
	)

	// DecodeFailuresTotal counts inbound frames dropped as malformed.
	DecodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groundstation_decode_failures_total",
			Help: "Total number of inbound frames dropped because they could not be decoded.",
		},
	)

	// CommandsSentTotal counts outbound commands by kind and outcome.
	CommandsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundstation_commands_sent_total",
			Help: "Total number of commands dispatched to the control channel.",
		},
		[]string{"type", "status"}, // status: success/failed
	)

	// VehiclesTracked reports the size of the known vehicle set.
	VehiclesTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundstation_vehicles_tracked",
			Help: "Number of vehicles the ground station has seen since startup.",
		},
	)
)

// Registry is the station's private metrics registry, exposed on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(ChannelConnectivityStatus)
	Registry.MustRegister(ReconnectAttemptsTotal)
	Registry.MustRegister(MessagesReceivedTotal)
	Registry.MustRegister(DecodeFailuresTotal)
	Registry.MustRegister(CommandsSentTotal)
	Registry.MustRegister(VehiclesTracked)
}
