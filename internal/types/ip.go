package types

import (
	"fmt"
	"time"
)

// IPState represents the last known public IP state
type IPState struct {
	IP        string    `json:"ip"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IPChange represents a detected public IP change
type IPChange struct {
	ID        string    `json:"id"`
	OldIP     string    `json:"old_ip,omitempty"`
	NewIP     string    `json:"new_ip"`
	ChangedAt time.Time `json:"changed_at"`
}

// Summary returns a short "old -> new" description of the change
func (c IPChange) Summary() string {
	oldIP := c.OldIP
	if oldIP == "" {
		oldIP = "none"
	}
	return fmt.Sprintf("%s -> %s", oldIP, c.NewIP)
}
