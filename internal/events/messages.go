package events

// Event types.
const (
	SessionChanged    = "session:changed"
	CollectionUpdated = "collection:updated"
	ConfigReloaded    = "config:reloaded"
)

// Collection update actions.
const (
	ActionRefresh = "refresh"
	ActionAdd     = "add"
	ActionRemove  = "remove"
)

// SessionChangedEvent is the payload for session:changed.
type SessionChangedEvent struct {
	Authenticated bool   `json:"authenticated"`
	UserName      string `json:"userName,omitempty"`
	Reason        string `json:"reason,omitempty"` // "login", "logout", "expired"
}

// CollectionUpdatedEvent is the payload for collection:updated.
type CollectionUpdatedEvent struct {
	Action     string  `json:"action"`
	CardID     string  `json:"cardId,omitempty"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// ConfigReloadedEvent is the payload for config:reloaded.
type ConfigReloadedEvent struct {
	RequestSpacing string `json:"requestSpacing"`
}
