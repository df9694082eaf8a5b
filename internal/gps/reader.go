package gps

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// Reader owns the GPS serial port and keeps the latest RMC fix. The
// practice classifier pulls Latest on each detection; absence of a fix
// is a normal condition, not an error.
type Reader struct {
	port io.ReadCloser

	mu   sync.RWMutex
	fix  Fix
	have bool

	// onFix, when set, is called for every parsed RMC sentence. Used by
	// the GPS producer to publish fixes as they arrive.
	onFix func(Fix)
}

// Open opens the GPS serial port and starts the NMEA read loop.
func Open(portName string, baudRate uint, onFix func(Fix)) (*Reader, error) {
	serialOpts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("gps: open %s: %w", portName, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", portName, baudRate)

	r := &Reader{port: port, onFix: onFix}
	go r.loop()
	return r, nil
}

// Latest returns the most recent valid fix. ok is false until the
// receiver has produced one.
func (r *Reader) Latest() (Fix, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix, r.have
}

// Close stops the read loop by closing the port.
func (r *Reader) Close() error {
	return r.port.Close()
}

func (r *Reader) loop() {
	reader := bufio.NewReader(r.port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("gps: read error, stopping: %v", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// Noisy receivers emit partial sentences; skip quietly.
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)

		fix := Fix{
			Time:       m.Time.String(),
			Date:       m.Date.String(),
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			CourseDeg:  m.Course,
			Validity:   string(m.Validity),
		}

		r.mu.Lock()
		if fix.Valid() {
			r.fix = fix
			r.have = true
		}
		onFix := r.onFix
		r.mu.Unlock()

		if onFix != nil {
			onFix(fix)
		}
	}
}
