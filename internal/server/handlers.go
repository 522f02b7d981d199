package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/channel"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

type handlers struct {
	store  *fleet.Store
	svc    Service
	logger log.Logger
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// readyz reflects channel connectivity so a front end can distinguish
// "station up, vehicles unreachable" from "station down".
func (h *handlers) readyz(w http.ResponseWriter, _ *http.Request) {
	if h.svc.Connection().Status != channel.StatusConnected {
		http.Error(w, "channel not connected", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *handlers) listVehicles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *handlers) getVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown vehicle "+id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// vehiclePatch carries local-only edits. None of these fields are ever
// forwarded over the channel.
type vehiclePatch struct {
	DisplayName *string  `json:"display_name,omitempty"`
	TargetSpeed *float64 `json:"target_speed,omitempty"`
	fleet.Selection
}

func (h *handlers) patchVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch vehiclePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed patch: "+err.Error())
		return
	}

	if _, ok := h.store.Get(id); !ok {
		writeError(w, http.StatusNotFound, "unknown vehicle "+id)
		return
	}

	if patch.DisplayName != nil {
		h.store.SetDisplayName(id, *patch.DisplayName)
	}
	if patch.TargetSpeed != nil {
		h.store.SetTargetSpeed(id, *patch.TargetSpeed)
	}
	h.store.SetSelection(id, patch.Selection)

	v, _ := h.store.Get(id)
	writeJSON(w, http.StatusOK, v)
}

func (h *handlers) postCommand(w http.ResponseWriter, r *http.Request) {
	var cmd channel.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "malformed command: "+err.Error())
		return
	}
	if cmd.Kind() == "" || cmd.Target() == "" {
		writeError(w, http.StatusBadRequest, "command requires type and target")
		return
	}

	if err := h.svc.Dispatch(cmd); err != nil {
		if errors.Is(err, channel.ErrNotConnected) {
			writeError(w, http.StatusBadGateway, "control channel not connected")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

type emergencyStopRequest struct {
	Engaged bool `json:"engaged"`
}

func (h *handlers) postEmergencyStop(w http.ResponseWriter, r *http.Request) {
	var req emergencyStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	// The flag is set regardless of whether the broadcast reaches the
	// control process; the tick loop keeps re-asserting the safe state.
	if err := h.svc.SetGlobalEmergencyStop(req.Engaged); err != nil && !errors.Is(err, channel.ErrNotConnected) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"engaged": req.Engaged})
}

func (h *handlers) listLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Logs())
}

func (h *handlers) getConnection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Connection())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
