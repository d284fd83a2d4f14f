package manager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupSignAssignsAscendingOrder(t *testing.T) {
	r := NewRegistry(30 * time.Second)
	now := time.Now()

	o1, uuid1, total1, err := r.SignupSign("room-a", 1, "party-1", 3, now)
	require.NoError(t, err)
	assert.Equal(t, 1, o1)
	assert.Equal(t, 1, total1)

	o2, uuid2, total2, err := r.SignupSign("room-a", 2, "party-2", 3, now)
	require.NoError(t, err)
	assert.Equal(t, 2, o2)
	assert.Equal(t, 2, total2)
	assert.Equal(t, uuid1, uuid2, "room_uuid stable across a signup phase")
}

func TestSignupSignRejectsFullActiveRoom(t *testing.T) {
	r := NewRegistry(30 * time.Second)
	now := time.Now()

	_, _, _, err := r.SignupSign("room-b", 1, "p1", 2, now)
	require.NoError(t, err)
	_, _, _, err = r.SignupSign("room-b", 2, "p2", 2, now)
	require.NoError(t, err)

	_, _, _, err = r.SignupSign("room-b", 3, "p3", 2, now)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestSignupSignReclaimsInactiveFullRoom(t *testing.T) {
	r := NewRegistry(1 * time.Second)
	past := time.Now().Add(-10 * time.Second)

	_, firstUUID, _, err := r.SignupSign("room-c", 1, "p1", 1, past)
	require.NoError(t, err)

	later := time.Now()
	order, newUUID, _, err := r.SignupSign("room-c", 2, "p2", 1, later)
	require.NoError(t, err)
	assert.Equal(t, 1, order)
	assert.NotEqual(t, firstUUID, newUUID, "a stale full room is reclaimed with a fresh room_uuid")
}

func TestSignupSignTerminatesClosedActiveRoom(t *testing.T) {
	r := NewRegistry(30 * time.Second)
	now := time.Now()

	_, _, _, err := r.SignupSign("room-d", 1, "p1", 1, now)
	require.NoError(t, err)

	_, _, _, err = r.SignupSign("room-d", 2, "p2", 1, now)
	assert.ErrorIs(t, err, ErrSignupTerminated)
}

func TestSignupSignRePingReturnsStoredInfo(t *testing.T) {
	r := NewRegistry(30 * time.Second)
	now := time.Now()

	order, roomUUID, _, err := r.SignupSign("room-e", 1, "", 2, now)
	require.NoError(t, err)

	later := now.Add(5 * time.Second)
	reping, repingUUID, total, err := r.SignupSign("room-e", 1, "some-uuid", 2, later)
	require.NoError(t, err)
	assert.Equal(t, order, reping, "a re-ping by the same party_number returns its stored party_order")
	assert.Equal(t, roomUUID, repingUUID)
	assert.Equal(t, 1, total)
}

func TestSignupSignReplacesTimedOutSlotOnReSignup(t *testing.T) {
	r := NewRegistry(1 * time.Second)
	past := time.Now().Add(-10 * time.Second)

	order, roomUUID, _, err := r.SignupSign("room-f", 1, "", 2, past)
	require.NoError(t, err)

	now := time.Now()
	newOrder, newRoomUUID, _, err := r.SignupSign("room-f", 1, "", 2, now)
	require.NoError(t, err)
	assert.Equal(t, order, newOrder, "replacing a timed-out slot keeps the same party_order")
	assert.Equal(t, roomUUID, newRoomUUID, "only a full room gets a fresh room_uuid, not a single replaced slot")
}

func TestSignupKeygenAssignsSequentialNumbers(t *testing.T) {
	r := NewRegistry(30 * time.Second)

	n1, uuid1, err := r.SignupKeygen("req-1", "party-a", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n1)

	n2, uuid2, err := r.SignupKeygen("req-1", "party-b", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n2)
	assert.Equal(t, uuid1, uuid2)

	_, _, err = r.SignupKeygen("req-1", "party-c", 2)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestSignupKeygenIsIdempotentPerParty(t *testing.T) {
	r := NewRegistry(30 * time.Second)

	n1, _, err := r.SignupKeygen("req-2", "party-a", 2)
	require.NoError(t, err)

	n1Again, _, err := r.SignupKeygen("req-2", "party-a", 2)
	require.NoError(t, err)
	assert.Equal(t, n1, n1Again)
}
