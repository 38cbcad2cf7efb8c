package location

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	geoclueService     = "org.freedesktop.GeoClue2"
	geoclueManagerPath = "/org/freedesktop/GeoClue2/Manager"
	geoclueManager     = "org.freedesktop.GeoClue2.Manager"

	// GClueAccuracyLevel NONE: location services are disabled system-wide
	accuracyNone = uint32(0)
)

// check GeoclueCheckers compliance to its interface during compile time
var _ Checker = (*GeoclueChecker)(nil)

type bus interface {
	nameHasOwner(name string) (bool, error)
	listActivatableNames() ([]string, error)
	accuracyLevel() (uint32, error)
	close() error
}

type GeoclueConfig struct {
	// Permission is the operator's grant to use location services.
	Permission bool
	Logger     Logger
}

// GeoclueChecker asks GeoClue2 on the system bus whether location services
// are available.
type GeoclueChecker struct {
	permission bool
	log        Logger
	bus        bus
}

func NewGeoclueChecker(config *GeoclueConfig) *GeoclueChecker {
	checker := &GeoclueChecker{
		permission: config.Permission,
	}

	if config.Logger != nil {
		checker.log = config.Logger
	} else {
		checker.log = noopLogger{}
	}

	return checker
}

func (c *GeoclueChecker) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	c.bus = &systemBus{conn: conn}

	return nil
}

func (c *GeoclueChecker) Stop() error {
	if c.bus == nil {
		return nil
	}

	err := c.bus.close()
	if err != nil {
		return errors.Errorf("could not close system bus: %v", err)
	}

	return nil
}

func (c *GeoclueChecker) PermissionGranted() bool {
	return c.permission
}

func (c *GeoclueChecker) ServiceEnabled() (bool, error) {
	if c.bus == nil {
		return false, errors.New("not connected to system bus")
	}

	owned, err := c.bus.nameHasOwner(geoclueService)
	if err != nil {
		return false, errors.Errorf("could not look up %v: %v", geoclueService, err)
	}

	if !owned {
		names, err := c.bus.listActivatableNames()
		if err != nil {
			return false, errors.Errorf("could not list activatable names: %v", err)
		}

		if !contains(names, geoclueService) {
			c.log.Debugf("%v is neither running nor activatable", geoclueService)
			return false, nil
		}
	}

	level, err := c.bus.accuracyLevel()
	if err != nil {
		return false, errors.Errorf("could not get accuracy level: %v", err)
	}

	c.log.Debugf("Available location accuracy level is %v", level)

	return level != accuracyNone, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

type systemBus struct {
	conn *dbus.Conn
}

func (b *systemBus) nameHasOwner(name string) (bool, error) {
	var owned bool

	err := b.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned)
	if err != nil {
		return false, err
	}

	return owned, nil
}

func (b *systemBus) listActivatableNames() ([]string, error) {
	var names []string

	err := b.conn.BusObject().Call("org.freedesktop.DBus.ListActivatableNames", 0).Store(&names)
	if err != nil {
		return nil, err
	}

	return names, nil
}

func (b *systemBus) accuracyLevel() (uint32, error) {
	obj := b.conn.Object(geoclueService, geoclueManagerPath)

	v, err := obj.GetProperty(geoclueManager + ".AvailableAccuracyLevel")
	if err != nil {
		return 0, err
	}

	level, ok := v.Value().(uint32)
	if !ok {
		return 0, errors.Errorf("could not convert accuracy level: %v", v)
	}

	return level, nil
}

func (b *systemBus) close() error {
	return b.conn.Close()
}
