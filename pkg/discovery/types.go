package discovery

import (
	"context"
	"errors"
	"time"
)

// Service constants.
const (
	// ServiceType is the DNS-SD service type of the gateway.
	ServiceType = "_dialsense._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// DefaultBrowseTimeout bounds Find when ctx has no deadline.
	DefaultBrowseTimeout = 10 * time.Second
)

// TXT record keys.
const (
	TXTKeyService        = "svc"
	TXTKeyCharacteristic = "chr"
	TXTKeyName           = "name"
	TXTKeyTag            = "tag"
)

// Errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("invalid instance name")
	ErrNotFound            = errors.New("service not found")
	ErrInvalidPort         = errors.New("invalid port")
)

// Info is what a device advertises.
type Info struct {
	// Name is the device name and the DNS-SD instance name.
	Name string

	// Port is the gateway TCP port.
	Port uint16

	// ServiceUUID is the 16-bit UUID of the exposed service.
	ServiceUUID uint16

	// CharacteristicUUID is the 16-bit UUID of the value characteristic.
	CharacteristicUUID uint16

	// Tag is the value header tag. Zero omits the record.
	Tag byte
}

// Validate checks Info before registration.
func (i *Info) Validate() error {
	if err := ValidateInstanceName(i.Name); err != nil {
		return err
	}
	if i.Port == 0 {
		return ErrInvalidPort
	}
	return nil
}

// GatewayService is a gateway found by browsing.
type GatewayService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	Info         Info
}

// Address returns a dialable host:port, preferring the first resolved address.
func (s *GatewayService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return joinHostPort(host, s.Port)
}

// Advertiser publishes the gateway.
type Advertiser interface {
	// Advertise starts (or replaces) the advertisement.
	Advertise(ctx context.Context, info *Info) error

	// Stop withdraws the advertisement.
	Stop()
}

// Browser finds gateways.
type Browser interface {
	// Browse streams gateways until ctx is cancelled.
	Browse(ctx context.Context) (<-chan *GatewayService, error)

	// Find returns the first gateway exposing the characteristic.
	Find(ctx context.Context, characteristic uint16) (*GatewayService, error)
}

// AdvertiserConfig configures advertising.
type AdvertiserConfig struct {
	// Interface limits advertising to one network interface. Empty means all.
	Interface string

	// TTL for records. Zero uses the library default.
	TTL time.Duration
}

// BrowserConfig configures browsing.
type BrowserConfig struct {
	// Interface limits browsing to one network interface. Empty means all.
	Interface string

	// BrowseTimeout bounds Find when ctx has no deadline.
	BrowseTimeout time.Duration
}
