package adminquery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

func TestListarEmpty(t *testing.T) {
	w := world.New(2)
	w.Lock()
	defer w.Unlock()
	assert.Equal(t, "Nenhum serviço agendado", Listar(w))
}

func TestListarShowsNonTerminalServices(t *testing.T) {
	w := world.New(2)
	w.Lock()
	defer w.Unlock()
	scheduled := w.AddService(1, "ana", 0, "casa", 5.0)
	inProgress := w.AddService(2, "bob", 0, "praia", 2.0)
	w.Bind(inProgress, w.VehicleByID(1))

	out := Listar(w)
	assert.Contains(t, out, fmt.Sprintf("Serviço %d: cliente ana, agendado", scheduled.ID))
	assert.Contains(t, out, fmt.Sprintf("Serviço %d: cliente bob, em curso", inProgress.ID))
}

func TestListarOmitsTerminalServices(t *testing.T) {
	w := world.New(1)
	w.Lock()
	defer w.Unlock()
	s := w.AddService(1, "ana", 0, "casa", 5.0)
	v := w.VehicleByID(1)
	w.Bind(s, v)
	s.Status = world.ServiceCompleted

	assert.Equal(t, "Nenhum serviço agendado", Listar(w))
}

func TestUtilizEmpty(t *testing.T) {
	w := world.New(2)
	w.Lock()
	defer w.Unlock()
	assert.Equal(t, "Nenhum cliente ligado", Utiliz(w))
}

func TestUtilizShowsClients(t *testing.T) {
	w := world.New(2)
	w.Lock()
	defer w.Unlock()
	w.AddClient(1, "ana")
	assert.Contains(t, Utiliz(w), "ana")
	assert.Contains(t, Utiliz(w), "à espera")
}

func TestFrotaListsEachVehicle(t *testing.T) {
	w := world.New(2)
	w.Lock()
	defer w.Unlock()
	s := w.AddService(1, "ana", 0, "casa", 5.0)
	w.Bind(s, w.VehicleByID(1))
	out := Frota(w)
	assert.Contains(t, out, "Veículo 1: serviço 1")
	assert.Contains(t, out, "Veículo 2: disponível")
}

func TestKMSumsActiveVehicles(t *testing.T) {
	w := world.New(1)
	w.Lock()
	defer w.Unlock()
	s := w.AddService(1, "ana", 0, "casa", 5.0)
	v := w.VehicleByID(1)
	w.Bind(s, v)
	v.TotalKM = 2.5
	assert.Equal(t, "2.5 km percorridos (viagens em curso)", KM(w))
}

func TestHoraFormatsSimulatedTime(t *testing.T) {
	w := world.New(1)
	w.Lock()
	defer w.Unlock()
	for i := 0; i < 3661; i++ {
		w.AdvanceTime()
	}
	assert.Equal(t, "01:01:01", Hora(w))
}
