package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/shakaar/internal/drive"
	"github.com/relabs-tech/shakaar/internal/logging"
)

// Config holds all application configuration values.
type Config struct {
	// Drive
	DriveVariant string
	MaxPower     int
	GainLeft     float64
	GainRight    float64
	GainStep     float64
	YawAxis      string
	ThrottleAxis string
	// Bindings overrides keyed by effect name, e.g. "terminate" -> "home".
	Bindings map[string]string

	// Timing
	TickInterval      int // milliseconds
	RetryInterval     int // milliseconds
	TelemetryInterval int // milliseconds

	// Controller
	JoystickIndex     int // -1 scans 0..JoystickScan-1
	JoystickScan      int
	ControllerMapping string // empty picks by device name
	DeadZone          float64
	HotZone           float64

	// Actuators, tried in order; "log" always succeeds
	Actuators []string

	// ThunderBorg
	ThunderBorgI2CBus  string
	ThunderBorgI2CAddr uint16

	// RedBoard
	RedBoardM1PWMPin  string
	RedBoardM1DirPin  string
	RedBoardM2PWMPin  string
	RedBoardM2DirPin  string
	RedBoardPWMFreqHz int

	// Sabertooth
	SabertoothSerialPort string
	SabertoothBaudRate   int
	SabertoothAddress    byte

	// CAN
	CANInterface string
	CANFrameID   uint32

	// Host commands
	ShutdownCommand string
	RebootCommand   string

	// MQTT
	MQTTBroker          string
	MQTTClientIDDrive   string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string
	TopicTelemetry      string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// Logging
	LogLevel string
	LogFile  string

	set map[string]bool
}

// Package-level singleton: InitGlobal loads once, Get reads under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional key at its default.
func Defaults() *Config {
	return &Config{
		DriveVariant:          "redboard",
		MaxPower:              drive.DefaultMaxPower,
		YawAxis:               "rx",
		ThrottleAxis:          "ly",
		Bindings:              map[string]string{},
		TickInterval:          20,
		RetryInterval:         1000,
		TelemetryInterval:     100,
		JoystickIndex:         -1,
		JoystickScan:          4,
		DeadZone:              0.1,
		HotZone:               0.2,
		ThunderBorgI2CAddr:    0x15,
		RedBoardM1PWMPin:      "GPIO18",
		RedBoardM1DirPin:      "GPIO23",
		RedBoardM2PWMPin:      "GPIO13",
		RedBoardM2DirPin:      "GPIO24",
		RedBoardPWMFreqHz:     1000,
		SabertoothSerialPort:  "/dev/serial0",
		SabertoothBaudRate:    9600,
		SabertoothAddress:     128,
		CANInterface:          "can0",
		CANFrameID:            0x200,
		ShutdownCommand:       "/usr/bin/sudo /sbin/shutdown -h now",
		RebootCommand:         "/usr/bin/sudo /sbin/shutdown -r now",
		MQTTClientIDDrive:     "shakaar-drive",
		MQTTClientIDConsole:   "shakaar-console",
		MQTTClientIDWeb:       "shakaar-web",
		MQTTClientIDDisplay:   "shakaar-display",
		TopicTelemetry:        "shakaar/telemetry",
		WebServerPort:         8080,
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 250,
		LogLevel:              "info",
		set:                   map[string]bool{},
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(bufio.NewScanner(file))
}

// Parse reads KEY=VALUE lines. Blank lines and lines starting with # are skipped.
func Parse(scanner *bufio.Scanner) (*Config, error) {
	cfg := Defaults()
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
		cfg.set[key] = true
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsSet reports whether key appeared in the loaded file.
func (c *Config) IsSet(key string) bool { return c.set[key] }

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	if effect, ok := strings.CutPrefix(key, "BIND_"); ok {
		name := strings.ToLower(effect)
		if _, err := drive.ParseEffect(name); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.Bindings[name] = value
		return nil
	}

	var err error
	switch key {
	// Drive
	case "DRIVE_VARIANT":
		if _, perr := drive.PolicyByName(value); perr != nil {
			return perr
		}
		c.DriveVariant = value
	case "MAX_POWER":
		c.MaxPower, err = parseIntRange(key, value, 1, 10000)
	case "GAIN_LEFT":
		c.GainLeft, err = parseFloatRange(key, value, -1, 1)
	case "GAIN_RIGHT":
		c.GainRight, err = parseFloatRange(key, value, -1, 1)
	case "GAIN_STEP":
		c.GainStep, err = parseFloatRange(key, value, 0, 1)
	case "YAW_AXIS":
		c.YawAxis = value
	case "THROTTLE_AXIS":
		c.ThrottleAxis = value

	// Timing
	case "TICK_INTERVAL":
		c.TickInterval, err = parseIntRange(key, value, 1, 10000)
	case "RETRY_INTERVAL":
		c.RetryInterval, err = parseIntRange(key, value, 1, 60000)
	case "TELEMETRY_INTERVAL":
		c.TelemetryInterval, err = parseIntRange(key, value, 1, 60000)

	// Controller
	case "JOYSTICK_INDEX":
		c.JoystickIndex, err = parseIntRange(key, value, -1, 31)
	case "JOYSTICK_SCAN":
		c.JoystickScan, err = parseIntRange(key, value, 1, 32)
	case "CONTROLLER_MAPPING":
		c.ControllerMapping = value
	case "DEAD_ZONE":
		c.DeadZone, err = parseFloatRange(key, value, 0, 0.9)
	case "HOT_ZONE":
		c.HotZone, err = parseFloatRange(key, value, 0, 0.9)

	// Actuators
	case "ACTUATORS":
		c.Actuators = nil
		for _, name := range strings.Split(value, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			switch name {
			case "can":
				name = "canbus"
			case "thunderborg", "redboard", "sabertooth", "canbus", "log":
			default:
				return fmt.Errorf("unknown actuator %q in ACTUATORS", name)
			}
			c.Actuators = append(c.Actuators, name)
		}

	// ThunderBorg
	case "THUNDERBORG_I2C_BUS":
		c.ThunderBorgI2CBus = value
	case "THUNDERBORG_I2C_ADDR":
		c.ThunderBorgI2CAddr, err = parseAddr(key, value)

	// RedBoard
	case "REDBOARD_M1_PWM_PIN":
		c.RedBoardM1PWMPin = value
	case "REDBOARD_M1_DIR_PIN":
		c.RedBoardM1DirPin = value
	case "REDBOARD_M2_PWM_PIN":
		c.RedBoardM2PWMPin = value
	case "REDBOARD_M2_DIR_PIN":
		c.RedBoardM2DirPin = value
	case "REDBOARD_PWM_FREQUENCY":
		c.RedBoardPWMFreqHz, err = parseIntRange(key, value, 1, 100000)

	// Sabertooth
	case "SABERTOOTH_SERIAL_PORT":
		c.SabertoothSerialPort = value
	case "SABERTOOTH_BAUD_RATE":
		c.SabertoothBaudRate, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SABERTOOTH_BAUD_RATE %q: %w", value, err)
		}
	case "SABERTOOTH_ADDRESS":
		var addr int
		addr, err = parseIntRange(key, value, 128, 135)
		c.SabertoothAddress = byte(addr)

	// CAN
	case "CAN_INTERFACE":
		c.CANInterface = value
	case "CAN_FRAME_ID":
		id, perr := strconv.ParseUint(value, 0, 32)
		if perr != nil {
			return fmt.Errorf("invalid CAN_FRAME_ID %q: %w", value, perr)
		}
		if id > 0x7FF {
			return fmt.Errorf("CAN_FRAME_ID must be a standard 11-bit id, got 0x%X", id)
		}
		c.CANFrameID = uint32(id)

	// Host commands
	case "SHUTDOWN_COMMAND":
		c.ShutdownCommand = value
	case "REBOOT_COMMAND":
		c.RebootCommand = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DRIVE":
		c.MQTTClientIDDrive = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseIntRange(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		c.DisplayI2CAddr, err = parseAddr(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseIntRange(key, value, 1, 60000)

	// Logging
	case "LOG_LEVEL":
		if _, perr := logging.ParseLevel(value); perr != nil {
			return perr
		}
		c.LogLevel = value
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if !c.IsSet("DRIVE_VARIANT") {
		return fmt.Errorf("DRIVE_VARIANT is required")
	}
	if c.YawAxis == "" || c.ThrottleAxis == "" {
		return fmt.Errorf("YAW_AXIS and THROTTLE_AXIS must not be empty")
	}
	if c.DeadZone+c.HotZone >= 1 {
		return fmt.Errorf("DEAD_ZONE + HOT_ZONE must be below 1, got %.2f", c.DeadZone+c.HotZone)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the drive policy for DRIVE_VARIANT with any GAIN_*, MAX_POWER
// and BIND_* overrides applied.
func (c *Config) Policy() (drive.Policy, error) {
	p, err := drive.PolicyByName(c.DriveVariant)
	if err != nil {
		return drive.Policy{}, err
	}
	p.MaxPower = c.MaxPower
	if c.IsSet("GAIN_LEFT") {
		p.InitialLeft = c.GainLeft
	}
	if c.IsSet("GAIN_RIGHT") {
		p.InitialRight = c.GainRight
	}
	if c.IsSet("GAIN_STEP") {
		p.LeftStep = withSign(c.GainStep, p.LeftStep)
		p.RightStep = withSign(c.GainStep, p.RightStep)
	}
	names := make([]string, 0, len(c.Bindings))
	for name := range c.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		combo := c.Bindings[name]
		effect, err := drive.ParseEffect(name)
		if err != nil {
			return drive.Policy{}, err
		}
		b, err := drive.ParseBinding(effect, combo)
		if err != nil {
			return drive.Policy{}, err
		}
		p.Bind(b)
	}
	if err := p.Validate(); err != nil {
		return drive.Policy{}, err
	}
	return p, nil
}

// ActuatorOrder is ACTUATORS, or the variant's own board followed by the
// log fallback when unset.
func (c *Config) ActuatorOrder() []string {
	if len(c.Actuators) > 0 {
		return c.Actuators
	}
	if p, err := drive.PolicyByName(c.DriveVariant); err == nil && p.Name == "thunderborg" {
		return []string{"thunderborg", "log"}
	}
	return []string{"redboard", "log"}
}

func withSign(magnitude, like float64) float64 {
	if like < 0 {
		return -magnitude
	}
	return magnitude
}

func parseIntRange(key, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	return v, nil
}

func parseFloatRange(key, value string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %g to %g, got %g", key, min, max, v)
	}
	return v, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit I2C address, got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
