package domain

// ConnectionState is the lifecycle state of the single logical stream
// connection.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String returns the label shown to the user.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// MarshalText encodes the state as its label.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
