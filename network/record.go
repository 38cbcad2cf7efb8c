package network

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-errors/errors"
)

// ScanRecord is one visible access point, in the wire format callers expect.
type ScanRecord struct {
	SSID         string `json:"SSID"`
	BSSID        string `json:"BSSID"`
	Capabilities string `json:"capabilities"`
	Frequency    int    `json:"frequency"`
	Level        int    `json:"level"`
	Timestamp    int64  `json:"timestamp"`
}

// RecordFromProperties converts the properties of one BSS. SSID and BSSID are
// mandatory, everything else falls back to its zero value.
func RecordFromProperties(props map[string]interface{}) (*ScanRecord, error) {
	record := &ScanRecord{}

	if val, ok := props["SSID"]; ok {
		ssid, ok := val.([]byte)
		if !ok {
			return nil, errors.Errorf("could not convert SSID to string: %v", val)
		}
		record.SSID = string(ssid)
	} else {
		return nil, errors.Errorf("mandatory property SSID was missing")
	}

	if val, ok := props["BSSID"]; ok {
		bssid, ok := val.([]byte)
		if !ok || len(bssid) != 6 {
			return nil, errors.Errorf("could not convert BSSID to string: %v", val)
		}
		record.BSSID = net.HardwareAddr(bssid).String()
	} else {
		return nil, errors.Errorf("mandatory property BSSID was missing")
	}

	if freq, ok := props["Frequency"].(uint16); ok {
		record.Frequency = int(freq)
	}

	if signal, ok := props["Signal"].(int16); ok {
		record.Level = int(signal)
	}

	seen := time.Now()
	if age, ok := props["Age"].(uint32); ok {
		seen = seen.Add(-time.Duration(age) * time.Second)
	}
	record.Timestamp = seen.UnixMicro()

	record.Capabilities = capabilities(props)

	return record, nil
}

// capabilities renders security and mode the way access point lists usually
// show them, e.g. "[WPA2-PSK-CCMP][ESS]".
func capabilities(props map[string]interface{}) string {
	var b strings.Builder

	wpa := securityCapability("WPA", props["WPA"])
	rsn := securityCapability("WPA2", props["RSN"])

	b.WriteString(wpa)
	b.WriteString(rsn)

	if privacy, ok := props["Privacy"].(bool); ok && privacy && wpa == "" && rsn == "" {
		b.WriteString("[WEP]")
	}

	switch props["Mode"] {
	case "infrastructure":
		b.WriteString("[ESS]")
	case "ad-hoc":
		b.WriteString("[IBSS]")
	}

	return b.String()
}

func securityCapability(prefix string, val interface{}) string {
	params, ok := val.(map[string]interface{})
	if !ok {
		return ""
	}

	keyMgmt, _ := params["KeyMgmt"].([]string)
	if len(keyMgmt) == 0 {
		return ""
	}

	suites := make([]string, 0, len(keyMgmt))
	for _, km := range keyMgmt {
		suites = append(suites, strings.TrimPrefix(km, "wpa-"))
	}

	capability := prefix + "-" + strings.ToUpper(strings.Join(suites, "+"))

	if pairwise, ok := params["Pairwise"].([]string); ok && len(pairwise) > 0 {
		capability += "-" + strings.ToUpper(strings.Join(pairwise, "+"))
	}

	return fmt.Sprintf("[%s]", capability)
}

// TrimQuotes removes one pair of surrounding double quotes.
func TrimQuotes(ssid string) string {
	if len(ssid) >= 2 && strings.HasPrefix(ssid, "\"") && strings.HasSuffix(ssid, "\"") {
		return ssid[1 : len(ssid)-1]
	}

	return ssid
}

// FormatIPv4 renders ip as a dotted quad, "0.0.0.0" when there is none.
func FormatIPv4(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}

	return net.IPv4zero.String()
}

// interfaceIPv4 returns the first IPv4 address assigned to ifname.
func interfaceIPv4(ifname string) net.IP {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			if v4 := ipNet.IP.To4(); v4 != nil {
				return v4
			}
		}
	}

	return nil
}
