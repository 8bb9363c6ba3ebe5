// Package discovery advertises the host gateway over mDNS/DNS-SD and lets
// peers find it.
//
// Service type: _dialsense._tcp
//
// Instance name is the configured device name. TXT records:
//
//	svc   service UUID16, 4 hex digits (e.g. 1844)
//	chr   value characteristic UUID16, 4 hex digits (e.g. 2B7D)
//	name  device name
//	tag   value header tag byte, decimal (optional)
package discovery
