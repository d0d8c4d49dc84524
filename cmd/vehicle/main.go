// Command vehicle is the per-trip worker process forked by the
// controller's supervisor (§4.5): it opens one vehicle's telemetry
// endpoint for the lifetime of a single trip, contacts its client
// directly over the client's reply endpoint, then reports progress and
// distance in 10% increments until the trip completes or is cancelled.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/ipc"
	"github.com/gutierrez-fleet/dispatchd/internal/transport"
	"github.com/gutierrez-fleet/dispatchd/internal/wire"
)

const steps = 10

func main() {
	vehicleID := flag.Int("vehicle-id", 0, "vehicle id")
	serviceID := flag.Int("service-id", 0, "service id")
	clientPID := flag.Int("client-pid", 0, "owning client pid")
	origin := flag.String("origin", "", "trip origin")
	distanceKM := flag.Float64("distance-km", 0, "trip distance in kilometers")
	flag.Parse()

	if *vehicleID == 0 || *serviceID == 0 {
		fmt.Fprintln(os.Stderr, "vehicle: --vehicle-id and --service-id are required")
		os.Exit(1)
	}

	path := config.VehiclePipePath(*vehicleID)
	f, err := ipc.OpenWriteOnly(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vehicle: open telemetry endpoint: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cancelCh := make(chan os.Signal, 1)
	signal.Notify(cancelCh, syscall.SIGUSR1)

	replier := transport.ReplySender{}
	replier.Send(int32(*clientPID), wire.Reply{
		Success: true,
		Message: fmt.Sprintf("Veículo %d chegou a '%s'. A viagem está a iniciar!", *vehicleID, *origin),
	})

	writeLine(f, fmt.Sprintf("TRIP_STARTED|%d|%d\n", *vehicleID, *serviceID))

	stepDuration := time.Duration(*distanceKM / steps * float64(time.Second))
	if stepDuration <= 0 {
		stepDuration = 100 * time.Millisecond
	}

	for i := 1; i <= steps; i++ {
		select {
		case <-cancelCh:
			writeLine(f, fmt.Sprintf("CANCELLED|%d|%d|\n", *vehicleID, *serviceID))
			return
		case <-time.After(stepDuration):
		}

		percent := i * 100 / steps
		traveled := *distanceKM * float64(i) / steps
		writeLine(f, fmt.Sprintf("PROGRESS|%d|%d|%d\n", *vehicleID, *serviceID, percent))
		writeLine(f, fmt.Sprintf("DISTANCE|%d|%d|%.2f\n", *vehicleID, *serviceID, traveled))
	}

	writeLine(f, fmt.Sprintf("COMPLETED|%d|%d|%.2f\n", *vehicleID, *serviceID, *distanceKM))
}

func writeLine(f *os.File, line string) {
	if _, err := f.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "vehicle: write telemetry: %v\n", err)
	}
}
