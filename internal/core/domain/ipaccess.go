package domain

import "time"

// IPStatus is the moderation status of an IP address.
type IPStatus string

const (
	IPStatusNone      IPStatus = "none"
	IPStatusBlacklist IPStatus = "blacklist"
	IPStatusWhitelist IPStatus = "whitelist"
)

// Valid reports whether s is a known status.
func (s IPStatus) Valid() bool {
	switch s {
	case IPStatusNone, IPStatusBlacklist, IPStatusWhitelist:
		return true
	}
	return false
}

// IPAccess is the access-control record of one IP address.
type IPAccess struct {
	IPAddress string    `json:"ip_address"`
	Status    IPStatus  `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
