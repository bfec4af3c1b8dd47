// AngelaMos | 2026
// events_test.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects     []string
	bodies       [][]byte
	err          error
	drained      bool
	disconnected bool
}

func (f *fakeConn) IsConnected() bool {
	return !f.disconnected
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisherEnvelope(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.Publish(context.Background(), SubjectAdded, AccountEvent{
		UserID:  "child-1",
		AddedBy: "parent-1",
	})
	require.NoError(t, err)

	require.Equal(t, []string{SubjectAdded}, fc.subjects)

	var env Envelope
	require.NoError(t, json.Unmarshal(fc.bodies[0], &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, SubjectAdded, env.Subject)
	assert.True(t, env.OccurredAt.Equal(fixed))

	var ev AccountEvent
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, "child-1", ev.UserID)
	assert.Equal(t, "parent-1", ev.AddedBy)

	require.NoError(t, p.Close())
	assert.True(t, fc.drained)
}

func TestNATSPublisherError(t *testing.T) {
	p := newNATSPublisher(&fakeConn{err: errors.New("nats: connection closed")})

	err := p.Publish(context.Background(), SubjectDeleted, AccountEvent{UserID: "u"})
	assert.ErrorContains(t, err, "publish account.deleted")
}

func TestEmitSwallowsErrors(t *testing.T) {
	p := newNATSPublisher(&fakeConn{err: errors.New("down")})

	assert.NotPanics(t, func() {
		Emit(context.Background(), p, SubjectSignedUp, AccountEvent{UserID: "u"})
		Emit(context.Background(), nil, SubjectSignedUp, AccountEvent{UserID: "u"})
		Emit(context.Background(), Noop{}, SubjectSignedUp, AccountEvent{UserID: "u"})
	})
}

func TestNATSPublisherPing(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc)

	assert.NoError(t, p.Ping(context.Background()))

	fc.disconnected = true
	assert.ErrorIs(t, p.Ping(context.Background()), ErrDisconnected)
}
