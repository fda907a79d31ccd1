package devconfig

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

const (
	minPort = 1
	maxPort = 65535

	maxHostnameLength = 253
)

// hostLabelPattern is one RFC 1123 label: 1-63 alphanumerics or hyphens, no
// hyphen at either end
var hostLabelPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// Resolve validates a declaration and returns the configuration for the build
// engine. Fields missing from the declaration stay unset. All validation
// failures are reported together and no configuration is returned on error.
func Resolve(decl Declaration) (ResolvedConfiguration, error) {
	plugins, pluginErr := resolvePlugins(decl.Plugins)
	server, serverErr := resolveServer(decl.Server)

	if err := errors.Join(pluginErr, serverErr); err != nil {
		return ResolvedConfiguration{}, err
	}

	return ResolvedConfiguration{plugins: plugins, server: server}, nil
}

func resolvePlugins(factories []PluginFactory) ([]PluginEntry, error) {
	entries := make([]PluginEntry, 0, len(factories))
	seen := make(map[string]int, len(factories))

	var errs []error
	for i, factory := range factories {
		if factory == nil {
			errs = append(errs, fmt.Errorf("%w: plugin %d has no factory", ErrInvalidPlugin, i))
			continue
		}

		entry := factory.Plugin()
		if entry.name == "" {
			errs = append(errs, fmt.Errorf("%w: plugin %d has no name", ErrInvalidPlugin, i))
			continue
		}

		if first, ok := seen[entry.name]; ok {
			errs = append(errs, fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicatePlugin, entry.name, first, i))
			continue
		}
		seen[entry.name] = i

		entries = append(entries, entry)
	}

	return entries, errors.Join(errs...)
}

func resolveServer(decl *ServerDeclaration) (ServerOptions, error) {
	var opts ServerOptions
	if decl == nil {
		return opts, nil
	}

	var errs []error

	if decl.Host != nil {
		if err := ValidateHost(*decl.Host); err != nil {
			errs = append(errs, err)
		} else {
			opts.host, opts.hasHost = *decl.Host, true
		}
	}

	if decl.Port != nil {
		if err := ValidatePort(*decl.Port); err != nil {
			errs = append(errs, err)
		} else {
			opts.port, opts.hasPort = *decl.Port, true
		}
	}

	return opts, errors.Join(errs...)
}

// ValidatePort checks the port is within [1, 65535].
func ValidatePort(port int) error {
	if port < minPort || port > maxPort {
		return fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidPort, port, minPort, maxPort)
	}
	return nil
}

// ValidateHost accepts a literal IP address (IPv6 optionally bracketed) or an
// RFC 1123 hostname.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidHost)
	}

	if inner, ok := strings.CutPrefix(host, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return fmt.Errorf("%w: %q has an unterminated bracket", ErrInvalidHost, host)
		}
		addr, err := netip.ParseAddr(inner)
		if err != nil || !addr.Is6() {
			return fmt.Errorf("%w: %q is not a bracketed IPv6 address", ErrInvalidHost, host)
		}
		return nil
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}

	if !isHostname(host) {
		return fmt.Errorf("%w: %q is neither an IP address nor a hostname", ErrInvalidHost, host)
	}

	return nil
}

func isHostname(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if host == "" || len(host) > maxHostnameLength {
		return false
	}

	labels := strings.Split(host, ".")
	for _, label := range labels {
		if !hostLabelPattern.MatchString(label) {
			return false
		}
	}

	// a numeric final label means a malformed IP such as 10.0.0.256
	return !isNumeric(labels[len(labels)-1])
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
