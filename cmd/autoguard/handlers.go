package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autoguard/pkg/advisor"
	"autoguard/pkg/auth"
	"autoguard/pkg/config"
	"autoguard/pkg/pipeline"
	"autoguard/pkg/recall"
	"autoguard/pkg/schedule"
	"autoguard/pkg/store"
	"autoguard/pkg/ueba"
)

type server struct {
	engine    *pipeline.Engine
	detector  *ueba.Detector
	tracker   *recall.Tracker
	sink      store.Sink
	tokens    *auth.Manager
	responder advisor.Responder
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   *ueba.User      `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

type revokeRequest struct {
	Token string `json:"token"`
}

type runRequest struct {
	VehicleID string `json:"vehicle_id"`
	UserID    string `json:"user_id"`
}

type resolveRequest struct {
	ThreatID int `json:"threat_id"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type chatRequest struct {
	VehicleID string `json:"vehicle_id"`
	Message   string `json:"message"`
}

type appointmentRequest struct {
	VehicleID   string `json:"vehicle_id"`
	OwnerEmail  string `json:"owner_email"`
	Date        string `json:"appointment_date"`
	ServiceType string `json:"service_type"`
}

func (s *server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/revoke", s.handleRevoke)
	mux.HandleFunc("/pipeline/run", s.handleRun)
	mux.HandleFunc("/chat", s.handleChat)

	mux.HandleFunc("/threats", s.handleThreats)
	mux.HandleFunc("/threats/summary", s.handleThreatSummary)
	mux.HandleFunc("/threats/resolve", s.requireRole("admin", "fleet_manager", s.handleResolveThreat))
	mux.HandleFunc("/users/block", s.requireRole("admin", "fleet_manager", s.handleBlockUser))
	mux.HandleFunc("/users/unblock", s.requireRole("admin", "fleet_manager", s.handleUnblockUser))
	mux.HandleFunc("/users/activity", s.handleUserActivity)

	mux.HandleFunc("/recalls/notifications", s.handleRecallNotifications)
	mux.HandleFunc("/recalls/candidates", s.handleRecallCandidates)
	mux.HandleFunc("/recalls/manufacturers", s.handleRecallManufacturers)

	mux.HandleFunc("/appointments", s.handleAppointments)
	mux.HandleFunc("/appointments/slots", s.handleSlots)
	mux.HandleFunc("/conversations", s.handleConversations)
	mux.HandleFunc("/stats", s.handleStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

// requireRole validates the bearer token and checks its role claim. Set
// AUTOGUARD_AUTH_DISABLED=1 to open the admin endpoints for local runs.
func (s *server) requireRole(role1, role2 string, next http.HandlerFunc) http.HandlerFunc {
	if config.Get("AUTOGUARD_AUTH_DISABLED", "") == "1" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := s.tokens.ValidateToken(r.Context(), raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if claims.TokenType != "access" || (claims.Role != role1 && claims.Role != role2) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.detector.Authenticate(req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, ueba.ErrAccountBlocked) {
			status = http.StatusForbidden
		}
		http.Error(w, err.Error(), status)
		return
	}
	pair, err := s.tokens.GenerateTokenPair(r.Context(), user.ID, user.Email, user.Role)
	if err != nil {
		http.Error(w, "failed to issue tokens", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{User: user, Tokens: pair})
}

func (s *server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req revokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.tokens.RevokeToken(r.Context(), req.Token); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req runRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VehicleID == "" || req.UserID == "" {
		http.Error(w, "missing vehicle_id/user_id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Run(r.Context(), req.VehicleID, req.UserID))
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VehicleID == "" || req.Message == "" {
		http.Error(w, "missing vehicle_id/message", http.StatusBadRequest)
		return
	}
	reply := s.responder.Reply(req.Message, advisor.ReplyContext{VehicleID: req.VehicleID})
	ctx := r.Context()
	_ = s.sink.SaveMessage(ctx, store.Message{VehicleID: req.VehicleID, Role: "user", Body: req.Message})
	_ = s.sink.SaveMessage(ctx, store.Message{VehicleID: req.VehicleID, Role: "assistant", Body: reply})
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *server) handleThreats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		writeJSON(w, http.StatusOK, s.detector.ThreatsByUser(userID))
		return
	}
	writeJSON(w, http.StatusOK, s.detector.ActiveThreats())
}

func (s *server) handleThreatSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.detector.Summary())
}

func (s *server) handleResolveThreat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.detector.ResolveThreat(req.ThreatID)
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}

func (s *server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	s.detector.BlockUser(req.UserID)
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": true})
}

func (s *server) handleUnblockUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	s.detector.UnblockUser(req.UserID)
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": false})
}

func (s *server) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.detector.UserActivitySummary(userID))
}

func (s *server) handleRecallNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.NotificationsSent())
}

func (s *server) handleRecallCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.RecallCandidates())
}

func (s *server) handleRecallManufacturers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.FailuresByManufacturer())
}

func (s *server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		vehicleID := r.URL.Query().Get("vehicle_id")
		if vehicleID == "" {
			http.Error(w, "missing vehicle_id", http.StatusBadRequest)
			return
		}
		appts, err := s.sink.Appointments(r.Context(), vehicleID)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, appts)
	case http.MethodPost:
		var req appointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.VehicleID == "" || req.Date == "" {
			http.Error(w, "missing vehicle_id/appointment_date", http.StatusBadRequest)
			return
		}
		id, err := s.sink.SaveAppointment(r.Context(), store.Appointment{
			VehicleID:   req.VehicleID,
			OwnerEmail:  req.OwnerEmail,
			Date:        req.Date,
			ServiceType: req.ServiceType,
		})
		if err != nil {
			http.Error(w, "save failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"appointment_id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	days := 5
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 30 {
			days = n
		}
	}
	writeJSON(w, http.StatusOK, schedule.Slots(time.Now(), days, r.URL.Query().Get("location")))
}

func (s *server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		http.Error(w, "missing vehicle_id", http.StatusBadRequest)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	msgs, err := s.sink.ConversationHistory(r.Context(), vehicleID, limit)
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.sink.Statistics(r.Context())
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
