package discovery

import (
	"net"
	"sort"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInfo() *Info {
	return &Info{
		Name:               "dial-kitchen",
		Port:               7447,
		ServiceUUID:        0x1844,
		CharacteristicUUID: 0x2B7D,
		Tag:                16,
	}
}

func TestEncodeTXT(t *testing.T) {
	txt := EncodeTXT(testInfo())

	assert.Equal(t, "1844", txt[TXTKeyService])
	assert.Equal(t, "2B7D", txt[TXTKeyCharacteristic])
	assert.Equal(t, "dial-kitchen", txt[TXTKeyName])
	assert.Equal(t, "16", txt[TXTKeyTag])
}

func TestEncodeTXTOmitsZeroTag(t *testing.T) {
	info := testInfo()
	info.Tag = 0

	_, ok := EncodeTXT(info)[TXTKeyTag]
	assert.False(t, ok)
}

func TestDecodeTXTThroughStrings(t *testing.T) {
	strs := TXTRecordsToStrings(EncodeTXT(testInfo()))
	sort.Strings(strs)
	assert.Equal(t, []string{"chr=2B7D", "name=dial-kitchen", "svc=1844", "tag=16"}, strs)

	info, err := DecodeTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)

	want := testInfo()
	want.Port = 0
	assert.Equal(t, want, info)
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		want error
	}{
		{"missing svc", TXTRecordMap{"chr": "2B7D", "name": "x"}, ErrMissingRequired},
		{"missing chr", TXTRecordMap{"svc": "1844", "name": "x"}, ErrMissingRequired},
		{"missing name", TXTRecordMap{"svc": "1844", "chr": "2B7D"}, ErrMissingRequired},
		{"bad svc", TXTRecordMap{"svc": "zz", "chr": "2B7D", "name": "x"}, ErrInvalidTXTRecord},
		{"svc too wide", TXTRecordMap{"svc": "12345", "chr": "2B7D", "name": "x"}, ErrInvalidTXTRecord},
		{"bad tag", TXTRecordMap{"svc": "1844", "chr": "2B7D", "name": "x", "tag": "300"}, ErrInvalidTXTRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTXT(tt.txt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStringsToTXTRecordsFlag(t *testing.T) {
	txt := StringsToTXTRecords([]string{"flag", "", "k=v=w"})
	assert.Equal(t, TXTRecordMap{"flag": "", "k": "v=w"}, txt)
}

func TestInfoValidate(t *testing.T) {
	assert.NoError(t, testInfo().Validate())

	noName := testInfo()
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), ErrInstanceNameTooLong)

	noPort := testInfo()
	noPort.Port = 0
	assert.ErrorIs(t, noPort.Validate(), ErrInvalidPort)
}

func TestEntryToGateway(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		Text:     TXTRecordsToStrings(EncodeTXT(testInfo())),
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
	}
	entry.Instance = "dial-kitchen"
	entry.HostName = "dial.local."
	entry.Port = 7447

	svc := entryToGateway(entry)
	require.NotNil(t, svc)
	assert.Equal(t, uint16(7447), svc.Info.Port)
	assert.Equal(t, uint16(0x2B7D), svc.Info.CharacteristicUUID)
	assert.Equal(t, "192.168.1.20:7447", svc.Address())

	entry.Text = []string{"name=other"}
	assert.Nil(t, entryToGateway(entry))
}

func TestAddressFallsBackToHost(t *testing.T) {
	svc := &GatewayService{Host: "dial.local.", Port: 7447}
	assert.Equal(t, "dial.local.:7447", svc.Address())
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	addrs := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "fe80::1"})
	assert.Equal(t, []string{"10.0.0.1", "fe80::1"}, addrs)

	entry := &zeroconf.ServiceEntry{AddrIPv4: []net.IP{net.ParseIP("10.0.0.1")}}
	assert.Equal(t, []string{"fe80::1"}, removeAddresses(addrs, entry))
}
