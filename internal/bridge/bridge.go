package bridge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/LuterGS/shome-ha-integration/internal/coordinator"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/mqtt"
	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// Logger is the minimal logging surface this package needs. A
// *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// broker is the MQTT surface the bridge uses, satisfied by *mqtt.Client.
type broker interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Coordinators holds the per-category coordinators. Nil members are
// categories with no devices; the bridge skips them.
type Coordinators struct {
	Lights      *coordinator.LightCoordinator
	Sensors     *coordinator.SensorCoordinator
	Aircons     *coordinator.ClimateCoordinator
	Heaters     *coordinator.ClimateCoordinator
	Ventilators *coordinator.VentilationCoordinator
}

// Bridge wires coordinator snapshots onto MQTT state topics and routes
// incoming command and refresh messages back to the coordinators.
type Bridge struct {
	broker broker
	coords Coordinators
	qos    byte
	logger Logger

	// ctx bounds cloud writes triggered by incoming commands.
	ctx context.Context
}

// New creates a bridge over the given broker and coordinators.
func New(b broker, coords Coordinators, qos byte, logger Logger) *Bridge {
	return &Bridge{broker: b, coords: coords, qos: qos, logger: logger}
}

// Bind attaches state and availability listeners to every coordinator
// and subscribes to the command and refresh topics. It must be called
// before the coordinators are started so their first poll is published.
func (br *Bridge) Bind(ctx context.Context) error {
	br.ctx = ctx

	if c := br.coords.Lights; c != nil {
		br.bindAvailability(c.Coordinator.Name(), shome.CategoryLight, c.SetOnAvailability)
		c.AddListener(func(snap coordinator.Snapshot[coordinator.LightState]) {
			for id, entry := range snap {
				br.publishState(shome.CategoryLight, id, func() ([]byte, error) {
					return marshalLightState(entry, c.Groups(id))
				})
			}
		})
	}
	if c := br.coords.Sensors; c != nil {
		br.bindAvailability(c.Coordinator.Name(), shome.CategorySensor, c.SetOnAvailability)
		c.AddListener(func(snap coordinator.Snapshot[coordinator.SensorState]) {
			for id, entry := range snap {
				br.publishState(shome.CategorySensor, id, func() ([]byte, error) {
					return marshalSensorState(entry)
				})
			}
		})
	}
	br.bindClimate(br.coords.Aircons, shome.CategoryAircon)
	br.bindClimate(br.coords.Heaters, shome.CategoryHeater)
	if c := br.coords.Ventilators; c != nil {
		br.bindAvailability(c.Coordinator.Name(), shome.CategoryVentilation, c.SetOnAvailability)
		c.AddListener(func(snap coordinator.Snapshot[coordinator.VentilationState]) {
			for id, entry := range snap {
				br.publishState(shome.CategoryVentilation, id, func() ([]byte, error) {
					return marshalVentilationState(entry)
				})
			}
		})
	}

	if err := br.broker.Subscribe(mqtt.Topics{}.AllCommands(), br.qos, br.handleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	if err := br.broker.Subscribe(mqtt.Topics{}.AllRefreshes(), br.qos, br.handleRefresh); err != nil {
		return fmt.Errorf("subscribing to refresh requests: %w", err)
	}
	return nil
}

func (br *Bridge) bindClimate(c *coordinator.ClimateCoordinator, cat shome.Category) {
	if c == nil {
		return
	}
	br.bindAvailability(c.Coordinator.Name(), cat, c.SetOnAvailability)
	c.AddListener(func(snap coordinator.Snapshot[coordinator.ClimateState]) {
		for id, entry := range snap {
			br.publishState(cat, id, func() ([]byte, error) {
				return marshalClimateState(entry)
			})
		}
	})
}

func (br *Bridge) bindAvailability(name string, cat shome.Category, register func(func(bool))) {
	register(func(up bool) {
		payload := "offline"
		if up {
			payload = "online"
		}
		topic := mqtt.Topics{}.Availability(string(cat))
		if err := br.broker.PublishRetained(topic, []byte(payload)); err != nil {
			br.logger.Warn("availability publish failed", "coordinator", name, "error", err)
		}
	})
}

func (br *Bridge) publishState(cat shome.Category, deviceID string, marshal func() ([]byte, error)) {
	payload, err := marshal()
	if err != nil {
		br.logger.Error("state marshal failed", "category", cat, "device", deviceID, "error", err)
		return
	}
	topic := mqtt.Topics{}.State(string(cat), deviceID)
	if err := br.broker.PublishRetained(topic, payload); err != nil {
		br.logger.Warn("state publish failed", "topic", topic, "error", err)
	}
}

// handleCommand routes one command message to the owning coordinator.
// Errors are returned for the MQTT layer to log.
func (br *Bridge) handleCommand(topic string, payload []byte) error {
	addr, err := mqtt.ParseCommandTopic(topic)
	if err != nil {
		return err
	}
	cmd, err := parseCommand(payload)
	if err != nil {
		return fmt.Errorf("command on %s: %w", topic, err)
	}

	br.logger.Debug("command received", "topic", topic, "action", cmd.Action)

	switch shome.Category(addr.Category) {
	case shome.CategoryLight:
		return br.handleLightCommand(addr, cmd)
	case shome.CategoryAircon:
		return br.handleClimateCommand(br.coords.Aircons, addr, cmd)
	case shome.CategoryHeater:
		return br.handleClimateCommand(br.coords.Heaters, addr, cmd)
	case shome.CategoryVentilation:
		return br.handleVentilationCommand(addr, cmd)
	default:
		return fmt.Errorf("no command support for category %q", addr.Category)
	}
}

func (br *Bridge) handleLightCommand(addr mqtt.CommandAddress, cmd commandPayload) error {
	c := br.coords.Lights
	if c == nil {
		return fmt.Errorf("no light devices configured")
	}
	if cmd.Action != actionOnOff {
		return fmt.Errorf("unsupported light action %q", cmd.Action)
	}
	on, err := cmd.onState()
	if err != nil {
		return err
	}

	switch {
	case addr.GroupID != "":
		groupID, err := parseSubID(addr.GroupID)
		if err != nil {
			return err
		}
		return c.SetGroup(br.ctx, addr.DeviceID, groupID, on)
	case addr.SubID != "":
		subID, err := parseSubID(addr.SubID)
		if err != nil {
			return err
		}
		return c.SetLight(br.ctx, addr.DeviceID, subID, on)
	default:
		return c.SetAll(br.ctx, addr.DeviceID, on)
	}
}

func (br *Bridge) handleClimateCommand(c *coordinator.ClimateCoordinator, addr mqtt.CommandAddress, cmd commandPayload) error {
	if c == nil {
		return fmt.Errorf("no %s devices configured", addr.Category)
	}
	if addr.SubID == "" {
		return fmt.Errorf("%s command on %s missing sub-device id", addr.Category, addr.DeviceID)
	}
	subID, err := parseSubID(addr.SubID)
	if err != nil {
		return err
	}
	switch cmd.Action {
	case actionOnOff:
		on, err := cmd.onState()
		if err != nil {
			return err
		}
		return c.SetPower(br.ctx, addr.DeviceID, subID, on)
	case actionSetTemp:
		if cmd.Temp == nil {
			return fmt.Errorf("set_temp command missing temp")
		}
		return c.SetTargetTemperature(br.ctx, addr.DeviceID, subID, *cmd.Temp)
	default:
		return fmt.Errorf("unsupported %s action %q", addr.Category, cmd.Action)
	}
}

func (br *Bridge) handleVentilationCommand(addr mqtt.CommandAddress, cmd commandPayload) error {
	c := br.coords.Ventilators
	if c == nil {
		return fmt.Errorf("no ventilation devices configured")
	}
	if addr.SubID == "" {
		return fmt.Errorf("ventilation command on %s missing sub-device id", addr.DeviceID)
	}
	subID, err := parseSubID(addr.SubID)
	if err != nil {
		return err
	}
	switch cmd.Action {
	case actionOnOff:
		on, err := cmd.onState()
		if err != nil {
			return err
		}
		return c.SetPower(br.ctx, addr.DeviceID, subID, on)
	case actionSetSpeed:
		if cmd.Speed == nil {
			return fmt.Errorf("set_speed command missing speed")
		}
		return c.SetSpeed(br.ctx, addr.DeviceID, subID, *cmd.Speed)
	default:
		return fmt.Errorf("unsupported ventilation action %q", cmd.Action)
	}
}

// handleRefresh forwards a refresh request to the category's
// coordinator. The actual poll is debounced by the coordinator.
func (br *Bridge) handleRefresh(topic string, _ []byte) error {
	cat, err := mqtt.ParseRefreshTopic(topic)
	if err != nil {
		return err
	}

	switch shome.Category(cat) {
	case shome.CategoryLight:
		if br.coords.Lights != nil {
			br.coords.Lights.RequestRefresh()
		}
	case shome.CategorySensor:
		if br.coords.Sensors != nil {
			br.coords.Sensors.RequestRefresh()
		}
	case shome.CategoryAircon:
		if br.coords.Aircons != nil {
			br.coords.Aircons.RequestRefresh()
		}
	case shome.CategoryHeater:
		if br.coords.Heaters != nil {
			br.coords.Heaters.RequestRefresh()
		}
	case shome.CategoryVentilation:
		if br.coords.Ventilators != nil {
			br.coords.Ventilators.RequestRefresh()
		}
	default:
		return fmt.Errorf("no refresh support for category %q", cat)
	}
	return nil
}

func parseSubID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid sub-device id %q", s)
	}
	return id, nil
}
