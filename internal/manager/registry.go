// Package manager implements the coordinator control plane (C7/C8,
// spec.md §4.7/§4.8): the signing-room registry with timeout
// reclamation, the keygen signup registry, and the in-process keygen
// orchestrator, wired to gin HTTP handlers.
package manager

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Stage is a SigningRoom's lifecycle stage (spec.md §3).
type Stage string

const (
	StageSignup Stage = "signup"
	StageClosed Stage = "closed"
)

// Member is one signed-up party's registry entry, keyed by party_number
// (the party's stable identity) but also carrying its assigned
// party_order (the insertion-order slot GG18's Lagrange indexing uses).
type Member struct {
	PartyNumber   int
	PartyUUID     string
	PartyOrder    int
	LastPingEpoch int64
}

// SigningRoom is the coordinator-side, transient per-message session of
// spec.md §3.
type SigningRoom struct {
	RoomID   string
	RoomUUID string
	Size     int
	Members  map[int]*Member // party_number -> member
	Stage    Stage
}

var ErrRoomFull = errors.New("manager: room is full")
var ErrSignupTerminated = errors.New("manager: signup phase terminated")

// Registry holds every live SigningRoom, keyed by content-addressed
// room_id, plus the keygen signup counters. A single RWMutex guards both:
// writers hold it only long enough to mutate one room (§5 "single
// writer-lock-with-many-readers").
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*SigningRoom
	keygenRooms map[string]*keygenRoom

	pingTimeout time.Duration
}

type keygenRoom struct {
	size     int
	next     int
	uuid     string
	assigned map[string]int // party_uuid -> assigned number
}

func NewRegistry(pingTimeout time.Duration) *Registry {
	return &Registry{
		rooms:       make(map[string]*SigningRoom),
		keygenRooms: make(map[string]*keygenRoom),
		pingTimeout: pingTimeout,
	}
}

func (r *Registry) anyActive(room *SigningRoom, now time.Time) bool {
	for _, m := range room.Members {
		if now.Unix()-m.LastPingEpoch <= int64(r.pingTimeout.Seconds()) {
			return true
		}
	}
	return false
}

// SignupSign implements §4.7: resolve the member identified by
// partyNumber within the room addressed by roomID, either refreshing its
// stored signup info (re-ping, or replacing a timed-out slot on
// re-signup by the same party number) or assigning it the next
// party_order, reclaiming a full-but-inactive room with a fresh
// room_uuid, or rejecting a full-and-active one.
func (r *Registry) SignupSign(roomID string, partyNumber int, partyUUID string, size int, now time.Time) (partyOrder int, roomUUID string, totalJoined int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = &SigningRoom{RoomID: roomID, RoomUUID: uuid.NewString(), Size: size, Members: map[int]*Member{}, Stage: StageSignup}
		r.rooms[roomID] = room
	}

	if room.Stage == StageClosed {
		// step 2: if the caller is already a member, return its stored info
		if existing, ok := room.Members[partyNumber]; ok {
			existing.LastPingEpoch = now.Unix()
			return existing.PartyOrder, room.RoomUUID, len(room.Members), nil
		}
		if r.anyActive(room, now) {
			return 0, "", 0, ErrSignupTerminated
		}
		// all inactive: reclaim with a fresh room_uuid (§8 scenario 3)
		room.RoomUUID = uuid.NewString()
		room.Members = map[int]*Member{}
		room.Stage = StageSignup
	}

	if existing, ok := room.Members[partyNumber]; ok {
		stale := now.Unix()-existing.LastPingEpoch > int64(r.pingTimeout.Seconds())
		if partyUUID == "" && stale {
			// step 5: re-signup by the same party number whose slot timed
			// out replaces that slot with a fresh party_uuid
			existing.PartyUUID = uuid.NewString()
		} else if partyUUID != "" {
			existing.PartyUUID = partyUUID
		}
		// step 6: update the existing member's last_ping
		existing.LastPingEpoch = now.Unix()
		return existing.PartyOrder, room.RoomUUID, len(room.Members), nil
	}

	if len(room.Members) >= room.Size {
		if r.anyActive(room, now) {
			return 0, "", 0, ErrRoomFull
		}
		room.RoomUUID = uuid.NewString()
		room.Members = map[int]*Member{}
	}

	if partyUUID == "" {
		partyUUID = uuid.NewString()
	}
	order := len(room.Members) + 1
	room.Members[partyNumber] = &Member{PartyNumber: partyNumber, PartyUUID: partyUUID, PartyOrder: order, LastPingEpoch: now.Unix()}
	if len(room.Members) == room.Size {
		room.Stage = StageClosed
	}
	return order, room.RoomUUID, len(room.Members), nil
}

func (r *Registry) Room(roomID string) (*SigningRoom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	cp := *room
	return &cp, true
}

// SignupKeygen implements the DKG signup of spec.md §6: relay key
// "signup-keygen", returning each party its assigned 1..n number.
func (r *Registry) SignupKeygen(requestID, partyUUID string, n int) (number int, roomUUID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.keygenRooms[requestID]
	if !ok {
		room = &keygenRoom{size: n, next: 1, uuid: uuid.NewString(), assigned: map[string]int{}}
		r.keygenRooms[requestID] = room
	}
	if existing, ok := room.assigned[partyUUID]; ok {
		return existing, room.uuid, nil
	}
	if room.next > room.size {
		return 0, "", ErrRoomFull
	}
	number = room.next
	room.next++
	room.assigned[partyUUID] = number
	return number, room.uuid, nil
}
