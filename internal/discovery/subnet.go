// internal/discovery/subnet.go
package discovery

import (
	"fmt"
	"net"
)

// Host ids worth probing without sweeping the whole subnet: router range,
// common DHCP pool starts, and the static range installers tend to use for
// printers.
var commonHostIDs = buildCommonHostIDs()

func buildCommonHostIDs() []int {
	var ids []int
	for i := 1; i <= 30; i++ {
		ids = append(ids, i)
	}
	for i := 100; i <= 130; i++ {
		ids = append(ids, i)
	}
	for i := 200; i <= 230; i++ {
		ids = append(ids, i)
	}
	ids = append(ids, 250, 251, 252, 253, 254)
	return ids
}

// fastHostIDs is the trimmed list used by fast scans
var fastHostIDs = buildFastHostIDs()

func buildFastHostIDs() []int {
	var ids []int
	for i := 1; i <= 10; i++ {
		ids = append(ids, i)
	}
	for i := 100; i <= 110; i++ {
		ids = append(ids, i)
	}
	for i := 200; i <= 210; i++ {
		ids = append(ids, i)
	}
	return ids
}

// LocalSubnet returns the /24 base of the first non-loopback IPv4
// interface, e.g. "192.168.1.".
func LocalSubnet() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("failed to list interface addresses: %w", err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		return fmt.Sprintf("%d.%d.%d.", ip4[0], ip4[1], ip4[2]), nil
	}
	return "", fmt.Errorf("no active IPv4 interface found")
}

// Candidates builds the deduplicated candidate IP list for a subnet base.
// Fast and normal speeds probe curated host ids, thorough sweeps the whole
// /24.
func Candidates(base string, speed string) []string {
	var ids []int
	switch speed {
	case "fast":
		ids = fastHostIDs
	case "thorough":
		for i := 1; i <= 254; i++ {
			ids = append(ids, i)
		}
	default:
		ids = commonHostIDs
	}

	seen := make(map[string]bool, len(ids))
	candidates := make([]string, 0, len(ids))
	for _, id := range ids {
		ip := fmt.Sprintf("%s%d", base, id)
		if seen[ip] {
			continue
		}
		seen[ip] = true
		candidates = append(candidates, ip)
	}
	return candidates
}
