package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense/internal/classify"
	"github.com/fairwaylabs/swingsense/internal/confirm"
	"github.com/fairwaylabs/swingsense/internal/power"
	"github.com/fairwaylabs/swingsense/internal/sampler"
	"github.com/fairwaylabs/swingsense/internal/session"
	"github.com/fairwaylabs/swingsense/internal/swing"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicMode         string
	TopicPhase        string
	TopicSwing        string
	TopicConfirmation string
	TopicConfirmCmd   string
	TopicNotice       string
	TopicGPS          string

	// Motion source: "mpu9250" or "mock"
	SamplerSource string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Power mode thresholds (g) and timeouts (ms)
	WakeThresholdG     float64
	HighFreqThresholdG float64
	IdleTimeoutMS      int
	HighFreqTimeoutMS  int
	OverrideDurationMS int

	// Swing detection
	SwingPeakFloorG  float64
	SwingDecelFloorG float64
	Sensitivity      float64

	// Practice classification
	PracticeWindowMS int
	PracticeRadiusM  float64

	// Confirmation workflow (ms)
	ConfirmGraceMS   int
	ConfirmTimeoutMS int

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr          uint16
	DisplayUpdateIntervalMS int
}

// Package-level unexported variables for the config singleton.
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration defaults; Load overrides them with
// whatever the file sets.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer: "swingsense-producer",
		MQTTClientIDGPS:      "swingsense-gps-producer",
		MQTTClientIDConsole:  "swingsense-console-subscriber",
		MQTTClientIDWeb:      "swingsense-web-subscriber",
		MQTTClientIDDisplay:  "swingsense-display-subscriber",

		TopicMode:         "swingsense/mode",
		TopicPhase:        "swingsense/phase",
		TopicSwing:        "swingsense/swing",
		TopicConfirmation: "swingsense/confirmation",
		TopicConfirmCmd:   "swingsense/confirmation/cmd",
		TopicNotice:       "swingsense/notice",
		TopicGPS:          "swingsense/gps",

		SamplerSource: "mpu9250",
		IMUSPIDevice:  "/dev/spidev0.0",
		IMUCSPin:      "18",
		IMUAccelRange: 3, // wrist peaks exceed ±8g mid-swing
		IMUGyroRange:  3,

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		WakeThresholdG:     1.3,
		HighFreqThresholdG: 2.0,
		IdleTimeoutMS:      30000,
		HighFreqTimeoutMS:  5000,
		OverrideDurationMS: 60000,

		SwingPeakFloorG:  2.5,
		SwingDecelFloorG: 1.5,
		Sensitivity:      1.0,

		PracticeWindowMS: 30000,
		PracticeRadiusM:  15.0,

		ConfirmGraceMS:   2000,
		ConfirmTimeoutMS: 30000,

		WebServerPort:           8080,
		DisplayI2CAddr:          0x3C,
		DisplayUpdateIntervalMS: 250,
	}
}

// Load reads the configuration file over the defaults and returns a
// Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_MODE":
		c.TopicMode = value
	case "TOPIC_PHASE":
		c.TopicPhase = value
	case "TOPIC_SWING":
		c.TopicSwing = value
	case "TOPIC_CONFIRMATION":
		c.TopicConfirmation = value
	case "TOPIC_CONFIRM_CMD":
		c.TopicConfirmCmd = value
	case "TOPIC_NOTICE":
		c.TopicNotice = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// Motion source
	case "SAMPLER_SOURCE":
		if value != "mpu9250" && value != "mock" {
			return fmt.Errorf("SAMPLER_SOURCE must be mpu9250 or mock, got %q", value)
		}
		c.SamplerSource = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Power mode
	case "WAKE_THRESHOLD_G":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WAKE_THRESHOLD_G %q: %w", value, err)
		}
		c.WakeThresholdG = v
	case "HIGHFREQ_THRESHOLD_G":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HIGHFREQ_THRESHOLD_G %q: %w", value, err)
		}
		c.HighFreqThresholdG = v
	case "IDLE_TIMEOUT_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IDLE_TIMEOUT_MS %q: %w", value, err)
		}
		c.IdleTimeoutMS = v
	case "HIGHFREQ_TIMEOUT_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HIGHFREQ_TIMEOUT_MS %q: %w", value, err)
		}
		c.HighFreqTimeoutMS = v
	case "OVERRIDE_DURATION_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid OVERRIDE_DURATION_MS %q: %w", value, err)
		}
		c.OverrideDurationMS = v

	// Swing detection
	case "SWING_PEAK_FLOOR_G":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SWING_PEAK_FLOOR_G %q: %w", value, err)
		}
		c.SwingPeakFloorG = v
	case "SWING_DECEL_FLOOR_G":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SWING_DECEL_FLOOR_G %q: %w", value, err)
		}
		c.SwingDecelFloorG = v
	case "SENSITIVITY":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SENSITIVITY %q: %w", value, err)
		}
		if v <= 0 {
			return fmt.Errorf("SENSITIVITY must be positive, got %g", v)
		}
		c.Sensitivity = v

	// Practice classification
	case "PRACTICE_WINDOW_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRACTICE_WINDOW_MS %q: %w", value, err)
		}
		c.PracticeWindowMS = v
	case "PRACTICE_RADIUS_M":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PRACTICE_RADIUS_M %q: %w", value, err)
		}
		c.PracticeRadiusM = v

	// Confirmation workflow
	case "CONFIRM_GRACE_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONFIRM_GRACE_MS %q: %w", value, err)
		}
		c.ConfirmGraceMS = v
	case "CONFIRM_TIMEOUT_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONFIRM_TIMEOUT_MS %q: %w", value, err)
		}
		c.ConfirmTimeoutMS = v

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL_MS %q: %w", value, err)
		}
		c.DisplayUpdateIntervalMS = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and coherent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SamplerSource == "mpu9250" && c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required")
	}
	if c.WakeThresholdG >= c.HighFreqThresholdG {
		return fmt.Errorf("WAKE_THRESHOLD_G (%g) must be below HIGHFREQ_THRESHOLD_G (%g)",
			c.WakeThresholdG, c.HighFreqThresholdG)
	}
	if c.IdleTimeoutMS <= 0 || c.HighFreqTimeoutMS <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT_MS and HIGHFREQ_TIMEOUT_MS must be positive")
	}
	if c.ConfirmGraceMS <= 0 || c.ConfirmTimeoutMS <= 0 {
		return fmt.Errorf("CONFIRM_GRACE_MS and CONFIRM_TIMEOUT_MS must be positive")
	}
	return nil
}

// SessionConfig builds the per-component tuning for one collection
// session from the file values.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.Power = power.Config{
		WakeThreshold:     c.WakeThresholdG,
		HighFreqThreshold: c.HighFreqThresholdG,
		IdleTimeout:       time.Duration(c.IdleTimeoutMS) * time.Millisecond,
		HighFreqTimeout:   time.Duration(c.HighFreqTimeoutMS) * time.Millisecond,
		OverrideDuration:  time.Duration(c.OverrideDurationMS) * time.Millisecond,
	}
	cfg.Detector = swing.Config{
		PeakFloorG:  c.SwingPeakFloorG,
		DecelFloorG: c.SwingDecelFloorG,
		Sensitivity: c.Sensitivity,
	}
	cfg.Classifier = classify.Config{
		Window: time.Duration(c.PracticeWindowMS) * time.Millisecond,
		Radius: c.PracticeRadiusM,
	}
	cfg.Confirm = confirm.Config{
		GracePeriod: time.Duration(c.ConfirmGraceMS) * time.Millisecond,
		AutoDismiss: time.Duration(c.ConfirmTimeoutMS) * time.Millisecond,
	}
	return cfg
}

// HardwareConfig builds the IMU wiring parameters.
func (c *Config) HardwareConfig() sampler.HardwareConfig {
	return sampler.HardwareConfig{
		SPIDevice:  c.IMUSPIDevice,
		CSPin:      c.IMUCSPin,
		AccelRange: c.IMUAccelRange,
		GyroRange:  c.IMUGyroRange,
	}
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
