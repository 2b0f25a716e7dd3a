// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"fmt"
	"net"
	"strings"
)

// lookupIP is replaced in tests
var lookupIP = net.LookupIP

// allowedNetworks parses IP addresses and CIDR ranges. Single addresses are
// treated as a range of one.
func allowedNetworks(allowedIPs []string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for i := range allowedIPs {
		entry := strings.TrimSpace(allowedIPs[i])
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, ipnet, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, ipnet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address %q", entry)
		}
		bits := 8 * net.IPv6len
		if ip.To4() != nil {
			ip, bits = ip.To4(), 8*net.IPv4len
		}
		out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return out, nil
}

// rejectOutboundIPRange resolves hostname and returns an error unless every address
// it resolves to is inside allowedIPs. An empty allowedIPs only requires the
// hostname to resolve.
func rejectOutboundIPRange(allowedIPs []string, hostname string) error {
	if host, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = host
	}
	addrs, err := lookupIP(hostname)
	if len(addrs) == 0 || err != nil {
		return fmt.Errorf("unable to resolve (found %d) %s: %v", len(addrs), hostname, err)
	}

	networks, err := allowedNetworks(allowedIPs)
	if err != nil {
		return err
	}
	if len(networks) == 0 {
		return nil
	}
	for _, addr := range addrs {
		if !containedBy(networks, addr) {
			return fmt.Errorf("%s is not allowed", addr)
		}
	}
	return nil
}

func containedBy(networks []*net.IPNet, addr net.IP) bool {
	for i := range networks {
		if networks[i].Contains(addr) {
			return true
		}
	}
	return false
}
