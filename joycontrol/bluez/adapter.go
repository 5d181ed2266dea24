// Package bluez makes a local BlueZ adapter look like a Pro Controller and
// carries HID reports over the L2CAP control and interrupt channels.
package bluez

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/muka/go-bluetooth/bluez"
	"github.com/muka/go-bluetooth/bluez/profile/adapter"
	"github.com/muka/go-bluetooth/bluez/profile/device"
	"github.com/muka/go-bluetooth/bluez/profile/profile"
	"github.com/muka/go-bluetooth/hw/linux/cmd"

	"dio.wtf/joypair/joycontrol/log"
)

//go:embed sdp/controller.xml
var sdpRecord string

const (
	hidPath = "/joypair/controller"
	// consoleName is what a Switch calls itself over Bluetooth.
	consoleName = "Nintendo Switch"

	discoverableTimeout = 180
)

type Adapter struct {
	*adapter.Adapter1
	id   string
	path dbus.ObjectPath
	log  log.Logger
}

// NewAdapter binds to /org/bluez/<id>.
func NewAdapter(id string, l log.Logger) (*Adapter, error) {
	if l == nil {
		l = log.Discard()
	}
	path := dbus.ObjectPath("/org/bluez/" + id)
	a, err := adapter.NewAdapter1(path)
	if nil != err {
		return nil, fmt.Errorf("adapter %s: %w", id, err)
	}
	l.DebugF("Using adapter under object path: %s", path)
	return &Adapter{
		Adapter1: a,
		id:       id,
		path:     path,
		log:      l.With("adapter", id),
	}, nil
}

func (a *Adapter) ID() string {
	return a.id
}

// Setup powers the adapter, names it and registers the HID profile. The
// class is given in hciconfig form, e.g. 0x002508.
func (a *Adapter) Setup(name, class string) error {
	if err := a.SetPowered(true); nil != err {
		return fmt.Errorf("power on: %w", err)
	}
	if err := a.SetPairable(true); nil != err {
		return fmt.Errorf("set pairable: %w", err)
	}
	if err := a.SetPairableTimeout(0); nil != err {
		a.log.Error(err)
	}
	if err := a.SetDiscoverableTimeout(discoverableTimeout); nil != err {
		a.log.Error(err)
	}
	if err := a.SetAlias(name); nil != err {
		a.log.Error(err)
	} else {
		a.log.DebugF("setting device name to %s...", name)
	}

	options := map[string]interface{}{
		"ServiceRecord":         sdpRecord,
		"Role":                  "server",
		"RequireAuthentication": false,
		"RequireAuthorization":  false,
		"AutoConnect":           true,
	}
	if err := a.registerProfile(hidPath, uuid.NewString(), options); nil != err {
		return fmt.Errorf("register HID profile: %w", err)
	}
	return a.SetClass(class)
}

// Advertise turns discovery on or off. The class is reapplied since BlueZ
// resets it when the adapter powers up.
func (a *Adapter) Advertise(on bool, class string) error {
	if on {
		if err := a.SetPowered(true); nil != err {
			return err
		}
		if err := a.SetPairable(true); nil != err {
			return err
		}
		if err := a.SetPairableTimeout(0); nil != err {
			return err
		}
	}
	if err := a.SetDiscoverable(on); nil != err {
		return err
	}
	if !on {
		return a.SetPairable(false)
	}
	return a.SetClass(class)
}

func (a *Adapter) SetClass(cls string) error {
	_, err := cmd.Exec("hciconfig", a.id, "class", cls)
	return err
}

func (a *Adapter) Address() (string, error) {
	return a.GetAddress()
}

func (a *Adapter) registerProfile(profilePath, uuid string, options map[string]interface{}) error {
	mgr, err := profile.NewProfileManager1()
	if nil != err {
		return err
	}
	return mgr.RegisterProfile(dbus.ObjectPath(profilePath), uuid, options)
}

// Consoles lists the Switches BlueZ knows about on this adapter.
func (a *Adapter) Consoles(connectedOnly bool) (consoles []Console, err error) {
	objects, err := managedObjects()
	if nil != err {
		return
	}

	for path, ifaces := range objects {
		iface, ok := ifaces[device.Device1Interface]
		if !ok {
			continue
		}
		prop := new(device.Device1Properties)
		prop, err = prop.FromDBusMap(iface)
		if nil != err {
			return nil, err
		}
		if prop.Adapter != a.path || !isConsole(prop) {
			continue
		}
		if connectedOnly && !prop.Connected {
			continue
		}
		consoles = append(consoles, Console{Path: path, Address: prop.Address, Connected: prop.Connected})
	}
	return
}

// Forget removes the pairing with the console at address.
func (a *Adapter) Forget(address string) error {
	consoles, err := a.Consoles(false)
	if nil != err {
		return err
	}
	for _, c := range consoles {
		if strings.EqualFold(c.Address, address) {
			a.log.InfoF("Removing %s (%s)", c.Address, c.Path)
			return a.RemoveDevice(c.Path)
		}
	}
	return fmt.Errorf("no console %s on %s", address, a.id)
}

type Console struct {
	Path      dbus.ObjectPath
	Address   string
	Connected bool
}

func isConsole(prop *device.Device1Properties) bool {
	return prop.Name == consoleName || prop.Alias == consoleName
}

func managedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	om, err := bluez.GetObjectManager()
	if nil != err {
		return nil, err
	}
	return om.GetManagedObjects()
}
