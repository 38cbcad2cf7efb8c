package pairing

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus"
	"github.com/muka/go-bluetooth/bluez"
	"github.com/muka/go-bluetooth/bluez/profile"
	"github.com/muka/go-bluetooth/service"
)

// Assigned numbers of the standard characteristics and descriptors the
// pairing service exposes.
const (
	deviceNameUuid         = "2A00"
	modelNumberUuid        = "2A24"
	serialNumberUuid       = "2A25"
	manufacturerNameUuid   = "2A29"
	userDescriptionUuid    = "2901"
	presentationFormatUuid = "2904"

	// presentation format of an utf8 string
	formatUtf8 = 25
)

type ServiceKind bool

const (
	Primary   = ServiceKind(true)
	Secondary = ServiceKind(false)
)

type Advertisement bool

const (
	Advertised         = Advertisement(true)
	AdvertisedOptional = Advertisement(false)
)

// gattBuilder declares an application with its services and characteristics.
// The first failure is kept and every later declaration is skipped, so
// callers only check the error returned by Run.
type gattBuilder struct {
	app      *service.Application
	handlers *handlers
	err      error
}

type gattService struct {
	*gattBuilder
	uuid    string
	service *service.GattService1
}

type gattCharacteristic struct {
	*gattService
	characteristic *service.GattCharacteristic1
}

func GattApp(objectName string, objectPath string, localName string) *gattBuilder {
	b := &gattBuilder{
		handlers: newHandlers(),
	}

	app, err := service.NewApplication(&service.ApplicationConfig{
		ObjectName: objectName,
		ObjectPath: dbus.ObjectPath(objectPath),
		LocalName:  localName,
		ReadFunc:   b.handleRead,
		WriteFunc:  b.handleWrite,
	})
	if err != nil {
		b.err = errors.Errorf("Could not create app %v: %v", objectName, err)
		return b
	}

	b.app = app

	return b
}

func (b *gattBuilder) handleRead(app *service.Application, serviceUuid string, characteristicUuid string) ([]byte, error) {
	read, ok := b.handlers.readFunc(serviceUuid, characteristicUuid)
	if !ok {
		return nil, service.NewCallbackError(service.CallbackNotRegistered, "")
	}

	return read()
}

func (b *gattBuilder) handleWrite(app *service.Application, serviceUuid string, characteristicUuid string, value []byte) error {
	write, ok := b.handlers.writeFunc(serviceUuid, characteristicUuid)
	if !ok {
		return service.NewCallbackError(service.CallbackNotRegistered, "")
	}

	return write(value)
}

// Run exports the declared application on the system bus.
func (b *gattBuilder) Run() (*service.Application, error) {
	if b.err != nil {
		return nil, b.err
	}

	err := b.app.Run()
	if err != nil {
		return nil, errors.Errorf("Could not run app: %v", err)
	}

	return b.app, nil
}

func (b *gattBuilder) Service(kind ServiceKind, uuid string, advertisement Advertisement) *gattService {
	s := &gattService{gattBuilder: b, uuid: uuid}

	if b.err != nil {
		return s
	}

	svc, err := b.app.CreateService(&profile.GattService1Properties{
		Primary: bool(kind),
		UUID:    uuid,
	}, bool(advertisement))
	if err != nil {
		b.err = errors.Errorf("Could not create service %v: %v", uuid, err)
		return s
	}

	err = b.app.AddService(svc)
	if err != nil {
		b.err = errors.Errorf("Could not add service %v: %v", uuid, err)
		return s
	}

	s.service = svc

	return s
}

func (s *gattService) DeviceNameCharacteristic(name string) *gattCharacteristic {
	return s.StaticCharacteristic(deviceNameUuid, name)
}

func (s *gattService) ManufacturerNameCharacteristic(name string) *gattCharacteristic {
	return s.StaticCharacteristic(manufacturerNameUuid, name)
}

func (s *gattService) ModelNumberCharacteristic(model string) *gattCharacteristic {
	return s.StaticCharacteristic(modelNumberUuid, model)
}

func (s *gattService) SerialNumberCharacteristic(serial string) *gattCharacteristic {
	return s.StaticCharacteristic(serialNumberUuid, serial)
}

// StaticCharacteristic exposes a read only value that never changes.
func (s *gattService) StaticCharacteristic(uuid string, value string) *gattCharacteristic {
	return s.addCharacteristic(uuid, []byte(value), []string{bluez.FlagCharacteristicRead})
}

// Characteristic exposes a value served by read and updated through write.
// Either of them may be nil.
func (s *gattService) Characteristic(uuid string, read ReadFunc, write WriteFunc) *gattCharacteristic {
	flags := characteristicFlags(read != nil, write != nil)

	c := s.addCharacteristic(uuid, nil, flags)
	if c.characteristic != nil {
		s.handlers.register(s.uuid, uuid, read, write)
	}

	return c
}

func characteristicFlags(readable bool, writable bool) []string {
	var flags []string

	if readable {
		flags = append(flags, bluez.FlagCharacteristicRead)
	}

	if writable {
		flags = append(flags, bluez.FlagCharacteristicWrite)
	}

	return flags
}

func (s *gattService) addCharacteristic(uuid string, value []byte, flags []string) *gattCharacteristic {
	c := &gattCharacteristic{gattService: s}

	if s.err != nil {
		return c
	}

	characteristic, err := s.service.CreateCharacteristic(&profile.GattCharacteristic1Properties{
		UUID:  uuid,
		Value: value,
		Flags: flags,
	})
	if err != nil {
		s.err = errors.Errorf("Could not create characteristic %v: %v", uuid, err)
		return c
	}

	err = s.service.AddCharacteristic(characteristic)
	if err != nil {
		s.err = errors.Errorf("Could not add characteristic %v: %v", uuid, err)
		return c
	}

	c.characteristic = characteristic

	return c
}

// Describe attaches a human readable user description.
func (c *gattCharacteristic) Describe(description string) *gattCharacteristic {
	return c.addDescriptor(userDescriptionUuid, []byte(description))
}

// PresentAsText tells clients to render the value as utf8 text.
func (c *gattCharacteristic) PresentAsText() *gattCharacteristic {
	return c.addDescriptor(presentationFormatUuid, []byte{formatUtf8})
}

func (c *gattCharacteristic) addDescriptor(uuid string, value []byte) *gattCharacteristic {
	if c.err != nil || c.characteristic == nil {
		return c
	}

	descriptor, err := c.characteristic.CreateDescriptor(&profile.GattDescriptor1Properties{
		UUID:  uuid,
		Value: value,
		Flags: []string{bluez.FlagDescriptorRead},
	})
	if err != nil {
		c.err = errors.Errorf("Could not create descriptor %v: %v", uuid, err)
		return c
	}

	err = c.characteristic.AddDescriptor(descriptor)
	if err != nil {
		c.err = errors.Errorf("Could not add descriptor %v: %v", uuid, err)
		return c
	}

	return c
}
