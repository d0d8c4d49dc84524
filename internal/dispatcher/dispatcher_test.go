package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutierrez-fleet/dispatchd/internal/wire"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

type fakeReplier struct {
	sent []sentReply
}

type sentReply struct {
	pid   int32
	reply wire.Reply
}

func (f *fakeReplier) Send(pid int32, r wire.Reply) {
	f.sent = append(f.sent, sentReply{pid: pid, reply: r})
}

func (f *fakeReplier) last() wire.Reply {
	return f.sent[len(f.sent)-1].reply
}

func newTestDispatcher(fleetSize int) (*Dispatcher, *world.World, *fakeReplier) {
	w := world.New(fleetSize)
	fr := &fakeReplier{}
	return New(w, fr), w, fr
}

func TestLoginAcceptsNewClient(t *testing.T) {
	d, w, fr := newTestDispatcher(2)

	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})

	require.Len(t, fr.sent, 1)
	assert.True(t, fr.last().Success)
	assert.Equal(t, "Bem-vindo!", fr.last().Message)
	w.Lock()
	assert.NotNil(t, w.ClientByPID(10))
	w.Unlock()
}

func TestLoginRejectsDuplicateName(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 11, ClientName: "ana", Type: wire.Login})

	assert.False(t, fr.last().Success)
	assert.Equal(t, "Username em uso", fr.last().Message)
}

func TestLoginRejectsWhenServerFull(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	for i := 0; i < 11; i++ {
		d.handle(wire.Request{ClientPID: int32(100 + i), ClientName: string(rune('a' + i)), Type: wire.Login})
	}
	assert.False(t, fr.last().Success)
	assert.Equal(t, "Servidor cheio", fr.last().Message)
}

func TestRideSchedulesService(t *testing.T) {
	d, w, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "100 casa 5.0"})

	require.True(t, fr.last().Success)
	assert.Contains(t, fr.last().Message, "Serviço agendado com ID 1")

	w.Lock()
	defer w.Unlock()
	s := w.ServiceByID(1)
	require.NotNil(t, s)
	assert.Equal(t, world.ServiceScheduled, s.Status)
	assert.Equal(t, "casa", s.Origin)
	assert.Equal(t, 5.0, s.DistanceKM)
}

func TestRideRejectsMalformedData(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "not enough"})
	assert.False(t, fr.last().Success)
}

func TestRideRejectsPastHour(t *testing.T) {
	d, w, fr := newTestDispatcher(2)
	w.Lock()
	w.AdvanceTime()
	w.AdvanceTime()
	w.Unlock()

	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "1 casa 5.0"})
	assert.False(t, fr.last().Success)
	assert.Contains(t, fr.last().Message, "Hora inválida")
}

func TestRideRejectsSecondActiveService(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "100 casa 5.0"})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "200 trabalho 3.0"})
	assert.False(t, fr.last().Success)
}

func TestCancelByIDCancelsScheduledService(t *testing.T) {
	d, w, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "100 casa 5.0"})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Cancel, Data: "1"})

	require.True(t, fr.last().Success)
	w.Lock()
	defer w.Unlock()
	assert.Equal(t, world.ServiceCancelled, w.ServiceByID(1).Status)
}

func TestCancelRejectsOtherClientsService(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 11, ClientName: "bob", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "100 casa 5.0"})
	d.handle(wire.Request{ClientPID: 11, ClientName: "bob", Type: wire.Cancel, Data: "1"})
	assert.False(t, fr.last().Success)
}

func TestCancelZeroCancelsAllScheduled(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "100 casa 5.0"})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Cancel, Data: "0"})
	require.True(t, fr.last().Success)
	assert.Equal(t, "1 serviço(s) agendado(s) cancelado(s)", fr.last().Message)
}

func TestConsultReportsNoServices(t *testing.T) {
	d, _, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Consult})
	assert.Equal(t, "Não tem serviços agendados", fr.last().Message)
}

func TestTerminateRejectsWhenOnTrip(t *testing.T) {
	d, w, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})

	w.Lock()
	c := w.ClientByPID(10)
	c.Status = world.ClientOnTrip
	w.Unlock()

	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Terminate})
	assert.False(t, fr.last().Success)
	assert.Equal(t, "Não pode sair. Está em viagem!", fr.last().Message)
}

func TestTerminateRemovesClientAndCancelsScheduled(t *testing.T) {
	d, w, fr := newTestDispatcher(2)
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Login})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Ride, Data: "100 casa 5.0"})
	d.handle(wire.Request{ClientPID: 10, ClientName: "ana", Type: wire.Terminate})

	require.True(t, fr.last().Success)
	assert.Equal(t, "Até breve!", fr.last().Message)

	w.Lock()
	defer w.Unlock()
	assert.Nil(t, w.ClientByPID(10))
	assert.Equal(t, world.ServiceCancelled, w.ServiceByID(1).Status)
}
