package main

import (
	"encoding/json"
	"net/http"

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/shared/messages"
)

const maxRequestBody = 1 << 16 // 64 KB

type directory struct {
	reg *Registry
	log logging.Logger
}

func newMux(reg *Registry, log logging.Logger) *http.ServeMux {
	d := &directory{reg: reg, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /servers", d.list)
	mux.HandleFunc("POST /servers/register", d.register)
	mux.HandleFunc("POST /servers/heartbeat", d.heartbeat)
	mux.HandleFunc("POST /servers/unregister", d.unregister)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		d.reply(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// list serves every live host, or only the hosts running ?zone= (aliases
// such as "bigmap" match their canonical zone).
func (d *directory) list(w http.ResponseWriter, r *http.Request) {
	var zone config.ZoneID
	if q := r.URL.Query().Get("zone"); q != "" {
		zone, _ = config.CanonicalZone(q)
	}
	d.reply(w, http.StatusOK, d.reg.List(zone))
}

func (d *directory) register(w http.ResponseWriter, r *http.Request) {
	var req messages.RegisterRequest
	if !d.decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Address == "" {
		d.fail(w, http.StatusBadRequest, "name and address required")
		return
	}

	id := d.reg.Register(messages.ServerInfo{
		Name:    req.Name,
		Address: req.Address,
		Version: req.Version,
		Status:  req.Status,
	})
	d.log.Info("registered server",
		logging.String("name", req.Name),
		logging.String("address", req.Address),
		logging.String("zone", req.Status.Zone),
		logging.String("id", id),
	)
	d.reply(w, http.StatusCreated, messages.RegisterResponse{ID: id})
}

func (d *directory) heartbeat(w http.ResponseWriter, r *http.Request) {
	var req messages.HeartbeatRequest
	if !d.decode(w, r, &req) {
		return
	}
	if !d.reg.Heartbeat(req.ID, req.Status) {
		d.fail(w, http.StatusNotFound, "unknown server")
		return
	}
	d.reply(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *directory) unregister(w http.ResponseWriter, r *http.Request) {
	var req messages.UnregisterRequest
	if !d.decode(w, r, &req) {
		return
	}
	if !d.reg.Unregister(req.ID) {
		d.fail(w, http.StatusNotFound, "unknown server")
		return
	}
	d.log.Info("unregistered server", logging.String("id", req.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (d *directory) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		d.fail(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (d *directory) fail(w http.ResponseWriter, status int, msg string) {
	d.reply(w, status, map[string]string{"error": msg})
}

func (d *directory) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.log.Warn("encode response", logging.Err(err))
	}
}
