package location

// Checker answers the two location preconditions checked before any
// connection request is issued.
type Checker interface {
	// PermissionGranted reports whether the daemon may use location services.
	PermissionGranted() bool
	// ServiceEnabled reports whether the location service is turned on.
	ServiceEnabled() (bool, error)
}

// StaticChecker answers from configuration only.
type StaticChecker struct {
	Permission bool
	Enabled    bool
}

func NewStaticChecker(permission bool, enabled bool) *StaticChecker {
	return &StaticChecker{
		Permission: permission,
		Enabled:    enabled,
	}
}

func (c *StaticChecker) PermissionGranted() bool {
	return c.Permission
}

func (c *StaticChecker) ServiceEnabled() (bool, error) {
	return c.Enabled, nil
}
