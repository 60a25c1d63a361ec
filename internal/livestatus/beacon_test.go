package livestatus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

type fakeAdvertiser struct {
	configured []bluetooth.AdvertisementOptions
	starts     int
	stops      int
	startErr   error
}

func (f *fakeAdvertiser) Configure(options bluetooth.AdvertisementOptions) error {
	f.configured = append(f.configured, options)
	return nil
}

func (f *fakeAdvertiser) Start() error {
	f.starts++
	return f.startErr
}

func (f *fakeAdvertiser) Stop() error {
	f.stops++
	return nil
}

// decodeStatus reads a payload written by encodeStatus.
func decodeStatus(data []byte) (interval.LiveStatus, error) {
	if len(data) != 7 || data[0] != beaconVersion {
		return interval.LiveStatus{}, fmt.Errorf("unsupported beacon payload % x", data)
	}
	status := interval.LiveStatus{
		CurrentSet:       int(data[1]),
		TotalSets:        int(data[2]),
		RemainingSeconds: int(binary.BigEndian.Uint16(data[3:5])),
	}
	if next := binary.BigEndian.Uint16(data[5:7]); next != noNextSet {
		n := int(next)
		status.NextSetSeconds = &n
	}
	return status, nil
}

func intPtr(v int) *int { return &v }

func TestEncodeStatus(t *testing.T) {
	status := interval.LiveStatus{TotalSets: 5, CurrentSet: 2, RemainingSeconds: 95, NextSetSeconds: intPtr(240)}

	payload := encodeStatus(status)
	assert.Equal(t, []byte{1, 2, 5, 0, 95, 0, 240}, payload)

	decoded, err := decodeStatus(payload)
	require.NoError(t, err)
	assert.Equal(t, status, decoded)

	final, err := decodeStatus(encodeStatus(interval.LiveStatus{TotalSets: 3, CurrentSet: 3, RemainingSeconds: 70000}))
	require.NoError(t, err)
	assert.Nil(t, final.NextSetSeconds)
	assert.Equal(t, 0xFFFF, final.RemainingSeconds)
}

func TestBeacon_Lifecycle(t *testing.T) {
	adv := &fakeAdvertiser{}
	beacon := newBeacon(adv, "CompPrep", log.New(io.Discard, "", 0))
	ctx := context.Background()

	// Update and End before Start are no-ops.
	require.NoError(t, beacon.Update(ctx, interval.LiveStatus{CurrentSet: 1, TotalSets: 2}))
	require.NoError(t, beacon.End(ctx))
	assert.Empty(t, adv.configured)
	assert.Zero(t, adv.stops)

	require.NoError(t, beacon.Start(ctx, 2))
	status := interval.LiveStatus{TotalSets: 2, CurrentSet: 1, RemainingSeconds: 60, NextSetSeconds: intPtr(120)}
	require.NoError(t, beacon.Update(ctx, status))
	require.NoError(t, beacon.Update(ctx, status))

	require.Len(t, adv.configured, 1, "unchanged payload is not re-advertised")
	opts := adv.configured[0]
	assert.Equal(t, "CompPrep", opts.LocalName)
	require.Len(t, opts.ManufacturerData, 1)
	assert.Equal(t, uint16(companyID), opts.ManufacturerData[0].CompanyID)
	assert.Equal(t, 1, adv.starts)

	status.RemainingSeconds = 59
	require.NoError(t, beacon.Update(ctx, status))
	assert.Len(t, adv.configured, 2)
	assert.Equal(t, 1, adv.stops)
	assert.Equal(t, 2, adv.starts)

	require.NoError(t, beacon.End(ctx))
	require.NoError(t, beacon.End(ctx))
	assert.Equal(t, 2, adv.stops)
}

func TestBeacon_StartFailure(t *testing.T) {
	adv := &fakeAdvertiser{startErr: errors.New("adapter busy")}
	beacon := newBeacon(adv, "CompPrep", log.New(io.Discard, "", 0))
	ctx := context.Background()

	require.NoError(t, beacon.Start(ctx, 1))
	err := beacon.Update(ctx, interval.LiveStatus{TotalSets: 1, CurrentSet: 1, RemainingSeconds: 10})
	assert.ErrorContains(t, err, "adapter busy")

	require.NoError(t, beacon.End(ctx))
	assert.Zero(t, adv.stops, "never started advertising")
}
