package devconfig

import "errors"

var (
	// ErrInvalidPort indicates the server port is not an integer in [1, 65535]
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidHost indicates the server host is empty or not a valid address
	ErrInvalidHost = errors.New("invalid host")
	// ErrDuplicatePlugin indicates the same plugin name was registered twice
	ErrDuplicatePlugin = errors.New("duplicate plugin")
	// ErrInvalidPlugin indicates a nil factory or a plugin without a name
	ErrInvalidPlugin = errors.New("invalid plugin")
	// ErrUnknownPlugin indicates a declaration references a plugin nobody registered
	ErrUnknownPlugin = errors.New("unknown plugin")
)
