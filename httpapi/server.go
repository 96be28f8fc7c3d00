// Package httpapi exposes the CEC adapter over a small JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"pitvremote/cec"
)

const version = "1.0.0"

// Device is the part of cec.Adapter the API drives.
type Device interface {
	State() cec.State
	Config() cec.Configuration
	PowerOnTV() error
	StandbyTV() error
	SetActiveSource() error
	SendRemoteButton(b cec.Button) error
	RequestPowerStatus() error
	RequestVendorID() error
	SendCommand(op cec.Opcode, destination cec.LogicalAddress, parameters []uint8) error
}

// Server serves the REST API.
type Server struct {
	device  Device
	events  *EventLog
	log     *slog.Logger
	router  *mux.Router
	metrics http.Handler
	wrap    func(http.Handler) http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics serves h on /metrics and counts every API request through
// middleware, which receives the matched route template.
func WithMetrics(h http.Handler, middleware func(route func(*http.Request) string) func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
		if middleware != nil {
			s.wrap = middleware(routeTemplate)
		}
	}
}

func NewServer(device Device, events *EventLog, opts ...Option) *Server {
	s := &Server{
		device: device,
		events: events,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = NewEventLog()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	if s.wrap != nil {
		r.Use(mux.MiddlewareFunc(s.wrap))
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api.HandleFunc("/power/on", s.action("Power on command sent", s.device.PowerOnTV)).Methods(http.MethodPost)
	api.HandleFunc("/power/off", s.action("Standby command sent", s.device.StandbyTV)).Methods(http.MethodPost)
	api.HandleFunc("/power/status", s.action("Power status requested", s.device.RequestPowerStatus)).Methods(http.MethodPost)
	api.HandleFunc("/power/status", s.powerStatus).Methods(http.MethodGet)
	api.HandleFunc("/vendor", s.action("Vendor ID requested", s.device.RequestVendorID)).Methods(http.MethodPost)
	api.HandleFunc("/vendor", s.vendor).Methods(http.MethodGet)
	api.HandleFunc("/source/active", s.action("Active source set", s.device.SetActiveSource)).Methods(http.MethodPost)

	api.HandleFunc("/key", s.sendKey).Methods(http.MethodPost)
	api.HandleFunc("/buttons", s.buttons).Methods(http.MethodGet)
	api.HandleFunc("/command", s.rawCommand).Methods(http.MethodPost)
	api.HandleFunc("/events", s.recentEvents).Methods(http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return r
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if t, err := route.GetPathTemplate(); err == nil {
			return t
		}
	}
	return ""
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Status:  "error",
		Message: message,
	})
}

func respondSuccess(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusOK, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// statusFor maps adapter errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cec.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, cec.ErrUnknownButton), errors.Is(err, cec.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, cec.ErrTransmission), errors.Is(err, cec.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.log.Warn("api request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	respondError(w, status, err.Error())
}

func (s *Server) action(message string, fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			s.fail(w, r, err)
			return
		}
		respondSuccess(w, message, nil)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	cfg := s.device.Config()
	respondSuccess(w, "Service is healthy", map[string]any{
		"version":          version,
		"state":            s.device.State().String(),
		"device_name":      cfg.DeviceName,
		"device_type":      cfg.DeviceType.String(),
		"physical_address": cec.PhysicalAddressToString(cfg.PhysicalAddress),
	})
}

func (s *Server) powerStatus(w http.ResponseWriter, r *http.Request) {
	status := s.events.TVPower()
	respondSuccess(w, "Power status retrieved", map[string]any{
		"address": int(cec.LogicalAddressTV),
		"status":  status.String(),
	})
}

func (s *Server) vendor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.events.TVVendor()
	if !ok {
		respondError(w, http.StatusNotFound, "TV has not reported a vendor ID yet")
		return
	}
	respondSuccess(w, "Vendor retrieved", map[string]any{
		"vendor_id":   fmt.Sprintf("0x%06X", id),
		"vendor_name": cec.GetVendorName(id),
	})
}

func (s *Server) sendKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Key == "" {
		respondError(w, http.StatusBadRequest, "'key' must be provided")
		return
	}

	b, err := cec.ParseButton(req.Key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.device.SendRemoteButton(b); err != nil {
		s.fail(w, r, err)
		return
	}
	respondSuccess(w, "Key command sent", map[string]any{"key": b.String()})
}

func (s *Server) buttons(w http.ResponseWriter, r *http.Request) {
	all := cec.Buttons()
	names := make([]string, len(all))
	for i, b := range all {
		names[i] = b.String()
	}
	respondSuccess(w, "Buttons retrieved", names)
}

// byteValue accepts a JSON number or a hex string such as "0x44".
type byteValue int

func (b *byteValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 0)
		if err != nil {
			return fmt.Errorf("invalid hex value %q", s)
		}
		*b = byteValue(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = byteValue(n)
	return nil
}

func (s *Server) rawCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination byteValue   `json:"destination"`
		Opcode      *byteValue  `json:"opcode"`
		Parameters  []byteValue `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Destination < 0 || req.Destination > 15 {
		respondError(w, http.StatusBadRequest, "Invalid destination logical address (must be 0-15)")
		return
	}
	if req.Opcode == nil || *req.Opcode < 0 || *req.Opcode > 0xFF {
		respondError(w, http.StatusBadRequest, "Invalid opcode (must be 0-255)")
		return
	}
	if len(req.Parameters) > cec.MaxParameters {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Too many parameters (max %d)", cec.MaxParameters))
		return
	}
	params := make([]uint8, len(req.Parameters))
	for i, p := range req.Parameters {
		if p < 0 || p > 0xFF {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Parameter %d out of range 0-255", i))
			return
		}
		params[i] = uint8(p)
	}

	err := s.device.SendCommand(cec.Opcode(*req.Opcode), cec.LogicalAddress(req.Destination), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondSuccess(w, "Raw command sent", nil)
}

func (s *Server) recentEvents(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, "Events retrieved", s.events.Recent())
}
