package diag

import (
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

const (
	maxTargetLength = 253
	maxLabelLength  = 63

	// shellMeta covers every character that could alter an argument
	// vector or reach a shell if one were ever involved.
	shellMeta = ";|&$><`\"'(){}[]*?!#~ \t\r\n\\"
)

// lookPath resolves a binary on PATH; a variable so tests can stub it.
var lookPath = exec.LookPath

// ValidateTarget checks that target is a syntactically valid hostname
// or IP literal safe to place in an argument vector. Leading '-' is
// rejected so a target can never be parsed as a flag by the tool.
func ValidateTarget(target string) error {
	if target == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidInput)
	}

	if len(target) > maxTargetLength {
		return fmt.Errorf("%w: target exceeds %d characters", ErrInvalidInput, maxTargetLength)
	}

	if strings.HasPrefix(target, "-") {
		return fmt.Errorf("%w: target must not start with '-'", ErrInvalidInput)
	}

	if strings.ContainsAny(target, shellMeta) {
		return fmt.Errorf("%w: target contains forbidden characters", ErrInvalidInput)
	}

	if net.ParseIP(target) != nil {
		return nil
	}

	if err := validateHostname(target); err != nil {
		return err
	}

	return nil
}

// validateHostname applies RFC 1123 label rules.
func validateHostname(host string) error {
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")

	for _, label := range labels {
		if label == "" || len(label) > maxLabelLength {
			return fmt.Errorf("%w: invalid hostname label", ErrInvalidInput)
		}

		for i := 0; i < len(label); i++ {
			c := label[i]

			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			case c == '-' && i != 0 && i != len(label)-1:
			default:
				return fmt.Errorf("%w: invalid hostname character %q", ErrInvalidInput, c)
			}
		}
	}

	return nil
}

// NewRequest validates the raw parameters for a tool invocation and
// returns an immutable request. Out-of-range counts fail rather than
// being clamped.
func NewRequest(tool models.Tool, target string, count int, ipv6 bool, cfg *config.ToolsConfig) (*models.DiagRequest, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	switch tool {
	case models.ToolPing:
		if count < 1 || count > cfg.MaxPingCount {
			return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidInput, cfg.MaxPingCount)
		}
	case models.ToolTraceroute:
		if count < 1 || count > cfg.MaxTracerouteHops {
			return nil, fmt.Errorf("%w: max hops must be between 1 and %d", ErrInvalidInput, cfg.MaxTracerouteHops)
		}
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownTool, tool)
	}

	return &models.DiagRequest{
		ID:     uuid.New().String(),
		Tool:   tool,
		Target: target,
		Count:  count,
		IPv6:   ipv6,
	}, nil
}

// BinaryFor returns the external binary for a tool/address-family pair,
// failing with ErrToolUnavailable if it is not installed on the host.
func BinaryFor(tool models.Tool, ipv6 bool) (string, error) {
	var name string

	switch tool {
	case models.ToolPing:
		name = "ping"
		if ipv6 {
			name = "ping6"
		}
	case models.ToolTraceroute:
		name = "traceroute"
		if ipv6 {
			name = "traceroute6"
		}
	default:
		return "", fmt.Errorf("%w: %q", errUnknownTool, tool)
	}

	if _, err := lookPath(name); err != nil {
		return "", fmt.Errorf("%w: %s not found on PATH", ErrToolUnavailable, name)
	}

	return name, nil
}

// ToolAvailable reports whether the binary for a tool/family pair is
// installed, without running anything.
func ToolAvailable(tool models.Tool, ipv6 bool) bool {
	_, err := BinaryFor(tool, ipv6)
	return err == nil
}
