package enum

// ProxyMode decides how resolved proxies are spread over accounts.
type ProxyMode string

const (
	// ProxyModeRoundRobin binds account i to proxies[i mod n].
	ProxyModeRoundRobin ProxyMode = "round_robin"
	// ProxyModeAll binds every account to every proxy, one worker per pair.
	ProxyModeAll ProxyMode = "all"
	// ProxyModeNone ignores proxies and connects directly.
	ProxyModeNone ProxyMode = "none"
)

func (m ProxyMode) IsValid() bool {
	switch m {
	case ProxyModeRoundRobin, ProxyModeAll, ProxyModeNone:
		return true
	}
	return false
}

type EventType string

const (
	EventTypeProfile  EventType = "profile"
	EventTypePing     EventType = "ping"
	EventTypeEarnings EventType = "earnings"
	EventTypeClaim    EventType = "claim"
	EventTypeError    EventType = "error"
)
