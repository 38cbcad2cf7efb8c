// Package rfkill reads and sets the soft block state of Wi-Fi radios through
// the Linux rfkill interface.
package rfkill

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-errors/errors"
)

const (
	typeWlan    = 1
	opChangeAll = 3
	eventSize   = 8
)

var ErrNoSwitch = errors.New("no wlan rfkill switch found")

type Switch struct {
	sysfs  string
	device string
}

func New() *Switch {
	return &Switch{
		sysfs:  "/sys/class/rfkill",
		device: "/dev/rfkill",
	}
}

// Blocked reports whether any wlan radio is soft or hard blocked.
func (s *Switch) Blocked() (bool, error) {
	entries, err := ioutil.ReadDir(s.sysfs)
	if err != nil {
		return false, errors.Errorf("could not list rfkill switches: %v", err)
	}

	found := false

	for _, entry := range entries {
		dir := filepath.Join(s.sysfs, entry.Name())

		kind, err := readValue(dir, "type")
		if err != nil || kind != "wlan" {
			continue
		}

		found = true

		for _, attr := range []string{"soft", "hard"} {
			v, err := readValue(dir, attr)
			if err != nil {
				return false, err
			}

			if v == "1" {
				return true, nil
			}
		}
	}

	if !found {
		return false, ErrNoSwitch
	}

	return false, nil
}

// SetBlocked soft blocks or unblocks every wlan radio.
func (s *Switch) SetBlocked(blocked bool) error {
	f, err := os.OpenFile(s.device, os.O_WRONLY, 0)
	if err != nil {
		return errors.Errorf("could not open %v: %v", s.device, err)
	}

	defer f.Close()

	var soft uint8
	if blocked {
		soft = 1
	}

	event := make([]byte, eventSize)
	binary.LittleEndian.PutUint32(event[0:4], 0)
	event[4] = typeWlan
	event[5] = opChangeAll
	event[6] = soft
	event[7] = 0

	_, err = f.Write(event)
	if err != nil {
		return errors.Errorf("could not write rfkill event: %v", err)
	}

	return nil
}

func readValue(dir string, name string) (string, error) {
	b, err := ioutil.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Errorf("could not read %v: %v", name, err)
	}

	return strings.TrimSpace(string(b)), nil
}
