package bluez

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muka/go-bluetooth/hw/linux/cmd"

	"dio.wtf/joypair/joycontrol/log"
)

const (
	servicePath  = "/lib/systemd/system/bluetooth.service"
	overrideDir  = "/run/systemd/system/bluetooth.service.d"
	overrideName = "joypair.conf"
)

// CompatMode restarts bluetoothd without its plugins so the input plugin
// does not hold PSM 17 and 19. Turning it off drops the override again.
// Hosts not run by systemd are left alone.
func CompatMode(l log.Logger, on bool) error {
	ret, err := cmd.Exec("ps", "--no-headers", "-o", "comm", "1")
	if nil != err || strings.TrimSpace(ret) != "systemd" {
		l.Debug("systemd not found, leaving bluetoothd as is")
		return nil
	}

	overridePath := filepath.Join(overrideDir, overrideName)
	if on {
		if _, err := os.Stat(overridePath); nil == err {
			// Override exist, no need to restart bluetooth
			return nil
		}
		execStart, err := compatExecStart(servicePath)
		if nil != err {
			return err
		}
		override := "[Service]\nExecStart=\n" + execStart + "\n"
		if err := os.MkdirAll(overrideDir, 0o755); nil != err {
			return err
		}
		if err := os.WriteFile(overridePath, []byte(override), 0o644); nil != err {
			return err
		}
		l.Debug("Override conf")
	} else {
		if err := os.Remove(overridePath); nil != err {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		l.Debug("Remove conf")
	}

	if _, err := cmd.Exec("systemctl", "daemon-reload"); nil != err {
		return err
	}
	if _, err := cmd.Exec("systemctl", "restart", "bluetooth"); nil != err {
		return err
	}
	l.Debug("systemd found and bluetooth reloaded")
	return nil
}

// compatExecStart reads the unit's ExecStart line and adds the flags that
// turn bluetoothd's plugins off.
func compatExecStart(unit string) (string, error) {
	file, err := os.Open(unit)
	if nil != err {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "ExecStart=") {
			return line + " --compat --noplugin=*", nil
		}
	}
	if err := scanner.Err(); nil != err {
		return "", err
	}
	return "", fmt.Errorf("%s: no ExecStart line", unit)
}
