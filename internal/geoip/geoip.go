package geoip

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// UnknownLocation is returned whenever an address cannot be resolved.
const UnknownLocation = "Unknown"

// Locator resolves a client address to a coarse location string
type Locator interface {
	Locate(ipAddress string) string
	Close() error
}

type maxmindLocator struct {
	reader *geoip2.Reader
}

// NewMaxMindLocator opens a MaxMind country/city database at dbPath
func NewMaxMindLocator(dbPath string) (Locator, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &maxmindLocator{reader: reader}, nil
}

// Locate returns the English country name for ipAddress, the ISO code when
// no name is available, or UnknownLocation.
func (l *maxmindLocator) Locate(ipAddress string) string {
	ip := net.ParseIP(firstAddress(ipAddress))
	if ip == nil {
		return UnknownLocation
	}

	record, err := l.reader.Country(ip)
	if err != nil {
		return UnknownLocation
	}

	if name := record.Country.Names["en"]; name != "" {
		return name
	}
	if record.Country.IsoCode != "" {
		return record.Country.IsoCode
	}
	return UnknownLocation
}

func (l *maxmindLocator) Close() error {
	return l.reader.Close()
}

// firstAddress extracts the leftmost entry of an X-Forwarded-For style
// value and strips any port.
func firstAddress(addr string) string {
	if i := strings.IndexByte(addr, ','); i >= 0 {
		addr = addr[:i]
	}
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

type noopLocator struct{}

// NewNoopLocator returns a locator that resolves everything to
// UnknownLocation, for deployments without a GeoIP database.
func NewNoopLocator() Locator {
	return noopLocator{}
}

func (noopLocator) Locate(string) string { return UnknownLocation }
func (noopLocator) Close() error         { return nil }
