package dose

import "fmt"

// Permission is the host's notification permission state.
type Permission int

const (
	PermissionUnsupported Permission = iota // host has no notification capability
	PermissionDefault                       // user has not decided yet
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionUnsupported:
		return "unsupported"
	case PermissionDefault:
		return "default"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// ParsePermission is the inverse of Permission.String.
func ParsePermission(s string) (Permission, error) {
	switch s {
	case "unsupported":
		return PermissionUnsupported, nil
	case "default":
		return PermissionDefault, nil
	case "granted":
		return PermissionGranted, nil
	case "denied":
		return PermissionDenied, nil
	default:
		return PermissionUnsupported, fmt.Errorf("unknown permission: %q", s)
	}
}

func (p Permission) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ShowOptions is the options bag passed with every notification.
type ShowOptions struct {
	Body               string
	RequireInteraction bool
	// Tag identifies the record the notification is about.
	Tag string
}

// Notifier is the permission-gated notification gateway the scheduler drives.
// Show is fire-and-forget and must drop the event unless permission is granted.
type Notifier interface {
	Permission() Permission
	Show(title string, opts ShowOptions)
}
