package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for a gateway advertisement.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyService:        fmt.Sprintf("%04X", info.ServiceUUID),
		TXTKeyCharacteristic: fmt.Sprintf("%04X", info.CharacteristicUUID),
		TXTKeyName:           info.Name,
	}
	if info.Tag != 0 {
		txt[TXTKeyTag] = strconv.FormatUint(uint64(info.Tag), 10)
	}
	return txt
}

// DecodeTXT parses gateway TXT records. Port is not part of TXT and is left zero.
func DecodeTXT(txt TXTRecordMap) (*Info, error) {
	info := &Info{}

	svc, err := parseUUID16(txt, TXTKeyService)
	if err != nil {
		return nil, err
	}
	info.ServiceUUID = svc

	chr, err := parseUUID16(txt, TXTKeyCharacteristic)
	if err != nil {
		return nil, err
	}
	info.CharacteristicUUID = chr

	name, ok := txt[TXTKeyName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyName)
	}
	info.Name = name

	if s, ok := txt[TXTKeyTag]; ok {
		tag, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: tag %q", ErrInvalidTXTRecord, s)
		}
		info.Tag = byte(tag)
	}

	return info, nil
}

func parseUUID16(txt TXTRecordMap, key string) (uint16, error) {
	s, ok := txt[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequired, key)
	}
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, key, s)
	}
	return uint16(n), nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if found {
			txt[k] = v
		} else if k != "" {
			// Key without value (boolean flag)
			txt[k] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}
