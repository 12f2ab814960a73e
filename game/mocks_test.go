package game

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- RoomRegistry ---

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) CreateRoom(ctx context.Context, rec RoomRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRegistry) GetRoom(ctx context.Context, id string) (RoomRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(RoomRecord), args.Error(1)
}

func (m *MockRegistry) UpdateRoom(ctx context.Context, rec RoomRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRegistry) DeleteRoom(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistry) RoomIDByParticipant(ctx context.Context, playerID string) (string, error) {
	args := m.Called(ctx, playerID)
	return args.String(0), args.Error(1)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- participant ---

// fakeParticipant records everything the room pushes at it on a channel so
// tests can assert on broadcast order.
type fakeParticipant struct {
	id     string
	name   string
	events chan ServerEvent

	mu       sync.Mutex
	room     *room
	pings    int
	released bool
}

func newFakeParticipant(id, name string) *fakeParticipant {
	return &fakeParticipant{id: id, name: name, events: make(chan ServerEvent, 64)}
}

func (f *fakeParticipant) ID() string       { return f.id }
func (f *fakeParticipant) Username() string { return f.name }

func (f *fakeParticipant) SendEvent(ev ServerEvent) {
	f.events <- ev
}

func (f *fakeParticipant) Ping() {
	f.mu.Lock()
	f.pings++
	f.mu.Unlock()
}

func (f *fakeParticipant) CancelAndRelease() {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
}

func (f *fakeParticipant) setRoom(r *room) {
	f.mu.Lock()
	f.room = r
	f.mu.Unlock()
}

func (f *fakeParticipant) currentRoom() *room {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.room
}

func (f *fakeParticipant) isReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// nextEvent blocks until the participant receives an event, failing the
// test on timeout so a missing broadcast doesn't hang the suite.
func (f *fakeParticipant) nextEvent(t testingT) ServerEvent {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event for participant %s", f.id)
		return ServerEvent{}
	}
}

func (f *fakeParticipant) noEvent(t testingT) {
	t.Helper()
	select {
	case ev := <-f.events:
		t.Fatalf("unexpected event %q for participant %s", ev.Type, f.id)
	case <-time.After(50 * time.Millisecond):
	}
}

type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// --- Roller ---

// stubRoller replays a fixed outcome sequence, cycling when exhausted.
type stubRoller struct {
	mu       sync.Mutex
	outcomes []RollOutcome
	i        int
}

func (r *stubRoller) Roll(Target) RollOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.outcomes[r.i%len(r.outcomes)]
	r.i++
	return o
}

// --- Source ---

// cycleSource walks a fixed index sequence, clamped into [0, n).
type cycleSource struct {
	vals []int
	i    int
}

func (s *cycleSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}
