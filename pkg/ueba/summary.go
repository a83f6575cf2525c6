package ueba

// ThreatSummary aggregates the active threat picture.
type ThreatSummary struct {
	TotalThreats  int            `json:"total_threats"`
	ActiveThreats int            `json:"total_active_threats"`
	BlockedUsers  int            `json:"blocked_users"`
	BySeverity    map[string]int `json:"by_severity"`
	ByType        map[string]int `json:"by_type"`
}

// Summary returns aggregate threat statistics. Counts by severity and type
// cover active threats only, matching the dashboard contract.
func (d *Detector) Summary() ThreatSummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := ThreatSummary{
		TotalThreats: len(d.threats),
		BlockedUsers: len(d.blocked),
		BySeverity:   make(map[string]int),
		ByType:       make(map[string]int),
	}
	for _, t := range d.threats {
		if t.Resolved {
			continue
		}
		s.ActiveThreats++
		s.BySeverity[t.Severity]++
		s.ByType[t.Type]++
	}
	return s
}

// ActivitySummary describes one user's recent behavior.
type ActivitySummary struct {
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Role          string          `json:"role"`
	TotalActions  int             `json:"total_actions"`
	ByAction      map[string]int  `json:"actions_by_type"`
	IsBlocked     bool            `json:"is_blocked"`
	ActiveThreats int             `json:"active_threats"`
	RecentActions []ActivityEvent `json:"recent_actions"`
}

// UserActivitySummary returns the activity profile for one user. Unknown
// users yield a summary with Name and Role set to "Unknown".
func (d *Detector) UserActivitySummary(userID string) ActivitySummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := ActivitySummary{
		UserID:   userID,
		Name:     "Unknown",
		Role:     "Unknown",
		ByAction: make(map[string]int),
	}
	if user := d.users.byID(userID); user != nil {
		s.Name = user.Name
		s.Role = user.Role
	}
	for _, e := range d.log {
		if e.UserID == userID {
			s.TotalActions++
			s.ByAction[e.Action]++
		}
	}
	_, s.IsBlocked = d.blocked[userID]
	for _, t := range d.threats {
		if t.UserID == userID && !t.Resolved {
			s.ActiveThreats++
		}
	}
	s.RecentActions = d.recentActionsLocked(userID)
	return s
}
