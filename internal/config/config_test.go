package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swingsense_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# SwingSense device configuration
MQTT_BROKER=tcp://localhost:1883
SAMPLER_SOURCE=mock

IMU_ACCEL_RANGE=2
IMU_GYRO_RANGE=1
GPS_SERIAL_PORT=/dev/ttyUSB0
GPS_BAUD_RATE=115200

WAKE_THRESHOLD_G=1.4
HIGHFREQ_THRESHOLD_G=2.2
IDLE_TIMEOUT_MS=20000
HIGHFREQ_TIMEOUT_MS=4000

SWING_PEAK_FLOOR_G=3.0
SENSITIVITY=0.8
PRACTICE_RADIUS_M=20
CONFIRM_GRACE_MS=1500
WEB_SERVER_PORT=9090
DISPLAY_I2C_ADDR=0x3D
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "mock", cfg.SamplerSource)
	assert.Equal(t, byte(2), cfg.IMUAccelRange)
	assert.Equal(t, byte(1), cfg.IMUGyroRange)
	assert.Equal(t, "/dev/ttyUSB0", cfg.GPSSerialPort)
	assert.Equal(t, 115200, cfg.GPSBaudRate)
	assert.Equal(t, 1.4, cfg.WakeThresholdG)
	assert.Equal(t, 2.2, cfg.HighFreqThresholdG)
	assert.Equal(t, 3.0, cfg.SwingPeakFloorG)
	assert.Equal(t, 0.8, cfg.Sensitivity)
	assert.Equal(t, 20.0, cfg.PracticeRadiusM)
	assert.Equal(t, 1500, cfg.ConfirmGraceMS)
	assert.Equal(t, 9090, cfg.WebServerPort)
	assert.Equal(t, uint16(0x3D), cfg.DisplayI2CAddr)

	// Unset keys keep their defaults.
	assert.Equal(t, "swingsense/swing", cfg.TopicSwing)
	assert.Equal(t, 1.5, cfg.SwingDecelFloorG)
	assert.Equal(t, 30000, cfg.PracticeWindowMS)
	assert.Equal(t, 30000, cfg.ConfirmTimeoutMS)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/swingsense_config.txt")
	require.Error(t, err)
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\nNOT_A_KEY=1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_A_KEY")
}

func TestLoadMalformedLine(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\njust some words\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadRequiresBroker(t *testing.T) {
	path := writeConfig(t, "SAMPLER_SOURCE=mock\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_BROKER")
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
WAKE_THRESHOLD_G=2.5
HIGHFREQ_THRESHOLD_G=2.0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAKE_THRESHOLD_G")
}

func TestLoadRejectsBadRanges(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://x\nIMU_ACCEL_RANGE=7\n")
	_, err := Load(path)
	require.Error(t, err)

	path = writeConfig(t, "MQTT_BROKER=tcp://x\nSENSITIVITY=-1\n")
	_, err = Load(path)
	require.Error(t, err)

	path = writeConfig(t, "MQTT_BROKER=tcp://x\nSAMPLER_SOURCE=tarot\n")
	_, err = Load(path)
	require.Error(t, err)
}

func TestSessionConfigMapping(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
WAKE_THRESHOLD_G=1.4
HIGHFREQ_THRESHOLD_G=2.2
IDLE_TIMEOUT_MS=20000
PRACTICE_WINDOW_MS=45000
PRACTICE_RADIUS_M=10
CONFIRM_GRACE_MS=1500
CONFIRM_TIMEOUT_MS=25000
SENSITIVITY=0.9
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	sc := cfg.SessionConfig()
	assert.Equal(t, 1.4, sc.Power.WakeThreshold)
	assert.Equal(t, 20*time.Second, sc.Power.IdleTimeout)
	assert.Equal(t, 0.9, sc.Detector.Sensitivity)
	assert.Equal(t, 45*time.Second, sc.Classifier.Window)
	assert.Equal(t, 10.0, sc.Classifier.Radius)
	assert.Equal(t, 1500*time.Millisecond, sc.Confirm.GracePeriod)
	assert.Equal(t, 25*time.Second, sc.Confirm.AutoDismiss)
}

func TestHardwareConfigMapping(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
IMU_SPI_DEVICE=/dev/spidev0.1
IMU_CS_PIN=22
IMU_ACCEL_RANGE=3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	hw := cfg.HardwareConfig()
	assert.Equal(t, "/dev/spidev0.1", hw.SPIDevice)
	assert.Equal(t, "22", hw.CSPin)
	assert.Equal(t, byte(3), hw.AccelRange)
}
