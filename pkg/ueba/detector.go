// Package ueba implements user and entity behavior analytics: an append-only
// activity log, ordered threat detection rules, and the blocked-user set the
// pipeline gates on.
package ueba

import (
	"fmt"
	"sync"
	"time"
)

// Threat severities.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Detection thresholds.
const (
	// RapidAccessThreshold is the recent-action count that flags bot-like access.
	RapidAccessThreshold = 5
	// BruteForceThreshold is the failed-login count that flags a brute force attempt.
	BruteForceThreshold = 3
	// recentWindow bounds the per-user recent-action window. A fixed last-N
	// window stands in for a time-bounded query.
	recentWindow = 10
)

// suspiciousRoles are roles whose access to sensitive actions is flagged.
var suspiciousRoles = map[string]bool{
	"external":   true,
	"contractor": true,
}

// sensitiveActions are the operations gated by role and working hours.
var sensitiveActions = map[string]bool{
	"run_diagnostics": true,
	"modify_vehicle":  true,
	"export_data":     true,
}

// ActivityEvent is one logged user action. The log is append-only.
type ActivityEvent struct {
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Threat is a detected anomaly. Threats are never deleted; ResolveThreat flips
// Resolved only.
type Threat struct {
	ID        int       `json:"threat_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"threat_type"`
	Severity  string    `json:"severity"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// Detector is the shared behavior registry. A single mutex serializes the
// append-then-analyze sequence so rule checks always see the history including
// the action being logged.
type Detector struct {
	mu      sync.Mutex
	users   *Directory
	log     []ActivityEvent
	threats []Threat
	blocked map[string]struct{}
	nextID  int
	now     func() time.Time
}

// NewDetector constructs a Detector over the given user directory.
func NewDetector(users *Directory) *Detector {
	if users == nil {
		users = &Directory{}
	}
	return &Detector{
		users:   users,
		blocked: make(map[string]struct{}),
		nextID:  1,
		now:     time.Now,
	}
}

// threatRule is one ordered detection step; the first rule to return a threat
// wins, so one LogActivity call raises at most one threat.
type threatRule func(d *Detector, user *User, action string) *Threat

var threatRules = []threatRule{
	checkUnauthorizedAccess,
	checkRapidAccess,
	checkAfterHours,
	checkBruteForce,
}

// LogActivity appends the action to the activity log and evaluates the threat
// rules. The action is recorded even when it raises a threat. Unknown users
// are logged but never flagged.
func (d *Detector) LogActivity(userID, action string, metadata map[string]any) *Threat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logActivityLocked(userID, action, metadata)
}

func (d *Detector) logActivityLocked(userID, action string, metadata map[string]any) *Threat {
	d.log = append(d.log, ActivityEvent{
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
		Timestamp: d.now(),
	})

	user := d.users.byID(userID)
	if user == nil {
		return nil
	}
	for _, rule := range threatRules {
		if t := rule(d, user, action); t != nil {
			t.ID = d.nextID
			d.nextID++
			t.Timestamp = d.now()
			d.threats = append(d.threats, *t)
			out := *t
			return &out
		}
	}
	return nil
}

func checkUnauthorizedAccess(d *Detector, user *User, action string) *Threat {
	if suspiciousRoles[user.Role] && sensitiveActions[action] {
		return &Threat{
			UserID:   user.ID,
			Type:     "Unauthorized Access",
			Severity: SeverityHigh,
			Details:  fmt.Sprintf("External user %s attempting %s", user.ID, action),
		}
	}
	return nil
}

func checkRapidAccess(d *Detector, user *User, action string) *Threat {
	recent := d.recentActionsLocked(user.ID)
	if len(recent) >= RapidAccessThreshold {
		return &Threat{
			UserID:   user.ID,
			Type:     "Rapid Access Pattern",
			Severity: SeverityMedium,
			Details:  fmt.Sprintf("User %s performed %d actions in 60 seconds", user.ID, len(recent)),
		}
	}
	return nil
}

func checkAfterHours(d *Detector, user *User, action string) *Threat {
	hour := d.now().Hour()
	if (hour < 6 || hour > 22) && sensitiveActions[action] {
		return &Threat{
			UserID:   user.ID,
			Type:     "After-Hours Access",
			Severity: SeverityLow,
			Details:  fmt.Sprintf("User %s accessing system at unusual hour: %d:00", user.ID, hour),
		}
	}
	return nil
}

func checkBruteForce(d *Detector, user *User, action string) *Threat {
	if action != "failed_login" {
		return nil
	}
	failed := 0
	for _, e := range d.recentActionsLocked(user.ID) {
		if e.Action == "failed_login" {
			failed++
		}
	}
	if failed >= BruteForceThreshold {
		return &Threat{
			UserID:   user.ID,
			Type:     "Brute Force Attempt",
			Severity: SeverityCritical,
			Details:  fmt.Sprintf("Multiple failed login attempts detected for %s", user.ID),
		}
	}
	return nil
}

// recentActionsLocked returns the user's last few logged actions, newest last.
func (d *Detector) recentActionsLocked(userID string) []ActivityEvent {
	var actions []ActivityEvent
	for _, e := range d.log {
		if e.UserID == userID {
			actions = append(actions, e)
		}
	}
	if len(actions) > recentWindow {
		actions = actions[len(actions)-recentWindow:]
	}
	return actions
}

// BlockUser adds the user to the blocked set and records the action under the
// SYSTEM principal.
func (d *Detector) BlockUser(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocked[userID] = struct{}{}
	d.logActivityLocked("SYSTEM", "user_blocked", map[string]any{"blocked_user": userID})
}

// UnblockUser removes the user from the blocked set.
func (d *Detector) UnblockUser(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.blocked, userID)
}

// IsBlocked reports whether the user is blocked.
func (d *Detector) IsBlocked(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.blocked[userID]
	return ok
}

// ResolveThreat marks the matching threat resolved. Unknown IDs are a no-op.
func (d *Detector) ResolveThreat(threatID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.threats {
		if d.threats[i].ID == threatID {
			d.threats[i].Resolved = true
			return
		}
	}
}

// ActiveThreats returns all unresolved threats, oldest first.
func (d *Detector) ActiveThreats() []Threat {
	d.mu.Lock()
	defer d.mu.Unlock()
	var active []Threat
	for _, t := range d.threats {
		if !t.Resolved {
			active = append(active, t)
		}
	}
	return active
}

// ThreatsByUser returns all threats raised for one user.
func (d *Detector) ThreatsByUser(userID string) []Threat {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Threat
	for _, t := range d.threats {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}
