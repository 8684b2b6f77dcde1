package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/shared/messages"
)

const heartbeatInterval = 30 * time.Second

// StatusSource reports the host's current throttling summary. It must be
// safe to call from any goroutine.
type StatusSource interface {
	DirectoryStatus() messages.DirectoryStatus
}

// Registration keeps the host listed in the master directory: it registers
// on Start, heartbeats the live DirectoryStatus and unregisters on Stop.
type Registration struct {
	masterURL string
	request   messages.RegisterRequest
	status    StatusSource
	logger    logging.Logger
	client    *http.Client

	mu       sync.Mutex
	serverID string

	stopCh chan struct{}
	done   chan struct{}
}

func NewRegistration(masterURL, name, address, version string, status StatusSource, logger logging.Logger) *Registration {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Registration{
		masterURL: masterURL,
		request:   messages.RegisterRequest{Name: name, Address: address, Version: version},
		status:    status,
		logger:    logger.With(logging.String("component", "registration")),
		client:    &http.Client{Timeout: 5 * time.Second},
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *Registration) Start() {
	if err := r.register(); err != nil {
		r.logger.Warn("initial registration failed", logging.Err(err))
	}
	go r.heartbeatLoop()
}

// Stop ends the heartbeats and removes the host from the directory.
func (r *Registration) Stop() {
	close(r.stopCh)
	<-r.done
	if err := r.unregister(); err != nil {
		r.logger.Warn("unregister failed", logging.Err(err))
	}
}

// ID is the identifier the master assigned, empty until registered.
func (r *Registration) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serverID
}

func (r *Registration) setID(id string) {
	r.mu.Lock()
	r.serverID = id
	r.mu.Unlock()
}

func (r *Registration) heartbeatLoop() {
	defer close(r.done)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.sendHeartbeat(); err != nil {
				r.logger.Warn("heartbeat failed", logging.Err(err))
			}
		}
	}
}

func (r *Registration) register() error {
	req := r.request
	req.Status = r.status.DirectoryStatus()

	resp, err := r.post("/servers/register", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("register: unexpected status %d", resp.StatusCode)
	}
	var result messages.RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode register response: %w", err)
	}

	r.setID(result.ID)
	r.logger.Info("registered with master",
		logging.String("id", result.ID),
		logging.String("zone", req.Status.Zone),
	)
	return nil
}

// sendHeartbeat registers again when the master has no record of us, which
// happens after it restarts or expires a host that stalled.
func (r *Registration) sendHeartbeat() error {
	id := r.ID()
	if id == "" {
		return r.register()
	}

	resp, err := r.post("/servers/heartbeat", messages.HeartbeatRequest{
		ID:     id,
		Status: r.status.DirectoryStatus(),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		r.logger.Info("master lost our registration, re-registering")
		r.setID("")
		return r.register()
	default:
		return fmt.Errorf("heartbeat: unexpected status %d", resp.StatusCode)
	}
}

func (r *Registration) unregister() error {
	id := r.ID()
	if id == "" {
		return nil
	}
	resp, err := r.post("/servers/unregister", messages.UnregisterRequest{ID: id})
	if err != nil {
		return err
	}
	resp.Body.Close()

	r.setID("")
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unregister: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (r *Registration) post(path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	resp, err := r.client.Post(r.masterURL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return resp, nil
}
