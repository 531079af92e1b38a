package producer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/daniil11ru/fleetwatch/libs/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	samples chan Sample
	err     error
}

func (f *fakeSource) Watch(ctx context.Context) (<-chan Sample, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.samples, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	p.payloads = append(p.payloads, cp)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func (p *recordingPublisher) last() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.payloads) == 0 {
		return nil
	}
	return p.payloads[len(p.payloads)-1]
}

func newTestLoop(source *fakeSource, pub *recordingPublisher) *Loop {
	return &Loop{
		Source:        source,
		Publisher:     pub,
		Vehicle:       Identity{ID: "V-001", Name: "unit", Driver: "d"},
		SpeedLimitKmh: 60,
		Interval:      10 * time.Millisecond,
	}
}

func TestNoPublishBeforeFirstSample(t *testing.T) {
	source := &fakeSource{samples: make(chan Sample)}
	pub := &recordingPublisher{}
	l := newTestLoop(source, pub)

	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, pub.count(), "ticker must stay silent until the sensor delivers a fix")
}

func TestRepublishesLatestSampleEveryTick(t *testing.T) {
	source := &fakeSource{samples: make(chan Sample, 1)}
	pub := &recordingPublisher{}
	l := newTestLoop(source, pub)

	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	source.samples <- Sample{Latitude: 4.6, Longitude: -74.08, SpeedKmh: 40, At: time.Now()}

	// Several ticks pass with a single sample: the same fix is republished.
	assert.Eventually(t, func() bool { return pub.count() >= 3 }, time.Second, 5*time.Millisecond)

	msg := track.Message{}
	require.NoError(t, msg.Decode(pub.last()))
	assert.Equal(t, "V-001", msg.ID)
	assert.Equal(t, 4.6, msg.Latitude())
	assert.Equal(t, track.StatusActive, msg.Status)
}

func TestNewSampleReplacesPublishedFix(t *testing.T) {
	source := &fakeSource{samples: make(chan Sample, 1)}
	pub := &recordingPublisher{}
	l := newTestLoop(source, pub)

	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	source.samples <- Sample{Latitude: 4.6, Longitude: -74.08, SpeedKmh: 40, At: time.Now()}
	assert.Eventually(t, func() bool { return pub.count() >= 1 }, time.Second, 5*time.Millisecond)

	source.samples <- Sample{Latitude: 4.7, Longitude: -74.09, SpeedKmh: 90, At: time.Now()}
	assert.Eventually(t, func() bool {
		msg := track.Message{}
		if err := msg.Decode(pub.last()); err != nil {
			return false
		}
		return msg.Latitude() == 4.7 && msg.Status == track.StatusSpeeding
	}, time.Second, 5*time.Millisecond)
}

func TestPermissionDeniedIsTerminal(t *testing.T) {
	source := &fakeSource{err: ErrPermissionDenied}
	pub := &recordingPublisher{}
	l := newTestLoop(source, pub)

	err := l.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, pub.count())

	// Stop after a failed start must not panic.
	assert.NotPanics(t, l.Stop)
}

func TestStopIsIdempotent(t *testing.T) {
	source := &fakeSource{samples: make(chan Sample, 1)}
	pub := &recordingPublisher{}
	l := newTestLoop(source, pub)

	require.NoError(t, l.Start(context.Background()))
	source.samples <- Sample{Latitude: 4.6, Longitude: -74.08, SpeedKmh: 40, At: time.Now()}
	assert.Eventually(t, func() bool { return pub.count() >= 1 }, time.Second, 5*time.Millisecond)

	l.Stop()
	l.Stop()

	published := pub.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, published, pub.count(), "no publishes after Stop")
}

func TestClosedSampleChannelStopsLoop(t *testing.T) {
	source := &fakeSource{samples: make(chan Sample)}
	pub := &recordingPublisher{}
	l := newTestLoop(source, pub)

	require.NoError(t, l.Start(context.Background()))
	close(source.samples)

	assert.Eventually(t, func() bool {
		select {
		case <-l.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
