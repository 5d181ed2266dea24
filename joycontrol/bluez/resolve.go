package bluez

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"dio.wtf/joypair/joycontrol/config"
)

var ErrNoAdapter = errors.New("no matching bluetooth adapter")

const sysfsRoot = "/sys"

// ResolveAdapter maps a transport spec to a BlueZ adapter id such as hci0.
func ResolveAdapter(spec config.TransportSpec) (string, error) {
	return resolveAdapter(sysfsRoot, spec)
}

func resolveAdapter(root string, spec config.TransportSpec) (string, error) {
	if spec.Kind == config.HCI {
		return spec.Adapter, nil
	}

	adapters, err := usbAdapters(root)
	if nil != err {
		return "", err
	}
	switch spec.Kind {
	case config.USBIndex:
		if spec.Index < len(adapters) {
			return adapters[spec.Index].id, nil
		}
	case config.USBDevice:
		for _, a := range adapters {
			if a.vendor == spec.VendorID && a.product == spec.ProductID {
				return a.id, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoAdapter, spec)
}

type usbAdapter struct {
	id      string
	vendor  uint16
	product uint16
}

// usbAdapters lists the USB attached hciN devices, sorted by id. The
// adapter's device link points at the USB interface; the ids live one
// level up on the USB device.
func usbAdapters(root string) ([]usbAdapter, error) {
	class := filepath.Join(root, "class", "bluetooth")
	entries, err := os.ReadDir(class)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}

	var adapters []usbAdapter
	for _, e := range entries {
		id := e.Name()
		if !strings.HasPrefix(id, "hci") || strings.Contains(id, ":") {
			continue
		}
		iface, err := filepath.EvalSymlinks(filepath.Join(class, id, "device"))
		if nil != err {
			continue
		}
		usbDev := filepath.Dir(iface)
		vendor, err := readHex16(filepath.Join(usbDev, "idVendor"))
		if nil != err {
			continue
		}
		product, err := readHex16(filepath.Join(usbDev, "idProduct"))
		if nil != err {
			continue
		}
		adapters = append(adapters, usbAdapter{id: id, vendor: vendor, product: product})
	}

	slices.SortFunc(adapters, func(a, b usbAdapter) int {
		return hciIndex(a.id) - hciIndex(b.id)
	})
	return adapters, nil
}

func readHex16(path string) (uint16, error) {
	b, err := os.ReadFile(path)
	if nil != err {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 16)
	return uint16(v), err
}

func hciIndex(id string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "hci"))
	return n
}
