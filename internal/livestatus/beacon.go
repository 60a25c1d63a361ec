package livestatus

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// companyID is the Bluetooth SIG identifier reserved for testing.
const companyID = 0xFFFF

const (
	beaconVersion = 1
	noNextSet     = 0xFFFF
)

// advertiser is the subset of *bluetooth.Advertisement the beacon drives.
type advertiser interface {
	Configure(options bluetooth.AdvertisementOptions) error
	Start() error
	Stop() error
}

// Beacon broadcasts the live status as BLE manufacturer data so a watch or
// phone nearby can show the countdown without pairing.
//
// Payload layout (big endian):
//
//	[0]    version
//	[1]    current set
//	[2]    total sets
//	[3:5]  remaining seconds
//	[5:7]  next set seconds, 0xFFFF when on the final set
type Beacon struct {
	logger    *log.Logger
	localName string
	activity  activity

	mu          sync.Mutex
	adv         advertiser
	advertising bool
	lastPayload []byte
}

// NewBeacon enables the adapter and prepares its default advertisement.
func NewBeacon(adapter *bluetooth.Adapter, localName string, logger *log.Logger) (*Beacon, error) {
	if adapter == nil {
		panic("Beacon: adapter cannot be nil")
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable BLE stack: %w", err)
	}
	return newBeacon(adapter.DefaultAdvertisement(), localName, logger), nil
}

func newBeacon(adv advertiser, localName string, logger *log.Logger) *Beacon {
	if logger == nil {
		panic("Beacon: logger cannot be nil")
	}
	return &Beacon{
		logger:    logger,
		localName: localName,
		adv:       adv,
	}
}

func (b *Beacon) Start(_ context.Context, totalSets int) error {
	if b.activity.start(totalSets) {
		b.logger.Printf("LiveStatus: BLE activity started (%d sets)", totalSets)
	}
	return nil
}

func (b *Beacon) Update(_ context.Context, status interval.LiveStatus) error {
	status, ok := b.activity.update(status)
	if !ok {
		return nil
	}
	return b.advertise(encodeStatus(status))
}

func (b *Beacon) End(_ context.Context) error {
	if !b.activity.end() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastPayload = nil
	if !b.advertising {
		return nil
	}
	b.advertising = false
	b.logger.Printf("LiveStatus: BLE advertising stopped")
	if err := b.adv.Stop(); err != nil {
		return fmt.Errorf("stop advertisement: %w", err)
	}
	return nil
}

// advertise restarts the advertisement when the payload changed.
func (b *Beacon) advertise(payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bytes.Equal(payload, b.lastPayload) {
		return nil
	}
	if b.advertising {
		if err := b.adv.Stop(); err != nil {
			return fmt.Errorf("stop advertisement: %w", err)
		}
		b.advertising = false
	}

	err := b.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName: b.localName,
		ManufacturerData: []bluetooth.ManufacturerDataElement{
			{CompanyID: companyID, Data: payload},
		},
	})
	if err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	if err := b.adv.Start(); err != nil {
		return fmt.Errorf("start advertisement: %w", err)
	}
	b.advertising = true
	b.lastPayload = payload
	return nil
}

func encodeStatus(status interval.LiveStatus) []byte {
	buf := make([]byte, 7)
	buf[0] = beaconVersion
	buf[1] = clampByte(status.CurrentSet)
	buf[2] = clampByte(status.TotalSets)
	binary.BigEndian.PutUint16(buf[3:5], clampUint16(status.RemainingSeconds))
	next := uint16(noNextSet)
	if status.NextSetSeconds != nil {
		next = clampUint16(*status.NextSetSeconds)
		if next == noNextSet {
			next--
		}
	}
	binary.BigEndian.PutUint16(buf[5:7], next)
	return buf
}

func clampByte(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 0xFF:
		return 0xFF
	}
	return byte(v)
}

func clampUint16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > 0xFFFF:
		return 0xFFFF
	}
	return uint16(v)
}
