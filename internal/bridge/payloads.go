package bridge

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/LuterGS/shome-ha-integration/internal/coordinator"
	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// Command actions accepted on the command topics.
const (
	actionOnOff    = "on_off"
	actionSetTemp  = "set_temp"
	actionSetSpeed = "set_speed"
)

// commandPayload is the JSON body of a command message.
type commandPayload struct {
	Action string   `json:"action"`
	State  string   `json:"state,omitempty"`
	Temp   *float64 `json:"temp,omitempty"`
	Speed  *int     `json:"speed,omitempty"`
}

func parseCommand(payload []byte) (commandPayload, error) {
	var cmd commandPayload
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return commandPayload{}, fmt.Errorf("decoding command payload: %w", err)
	}
	if cmd.Action == "" {
		return commandPayload{}, fmt.Errorf("command payload missing action")
	}
	return cmd, nil
}

// onState interprets the payload's state literal.
func (c commandPayload) onState() (bool, error) {
	switch shome.OnOff(c.State) {
	case shome.On:
		return true, nil
	case shome.Off:
		return false, nil
	default:
		return false, fmt.Errorf("invalid state %q (want ON or OFF)", c.State)
	}
}

// State payloads published to shome/state/{category}/{device_id}.
// Sub-device maps are keyed by the sub id rendered as a string so the
// JSON stays stable regardless of consumer integer handling.

type lightSubState struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
}

type lightGroupState struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Members []int  `json:"members"`
	On      bool   `json:"on"`
}

type lightDeviceState struct {
	Device string                   `json:"device"`
	Subs   map[string]lightSubState `json:"subs"`
	Groups []lightGroupState        `json:"groups,omitempty"`
}

func marshalLightState(entry coordinator.Entry[coordinator.LightState], groups []shome.LightGroup) ([]byte, error) {
	state := lightDeviceState{
		Device: entry.Info.Name,
		Subs:   make(map[string]lightSubState, len(entry.Subs)),
	}
	for id, s := range entry.Subs {
		state.Subs[strconv.Itoa(id)] = lightSubState{Name: s.Name, On: s.On}
	}
	for _, g := range groups {
		state.Groups = append(state.Groups, lightGroupState{
			ID:      g.GroupID,
			Name:    g.Nickname,
			Members: g.DeviceList,
			On:      g.On(),
		})
	}
	return json.Marshal(state)
}

type sensorSubState struct {
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	CO2         *float64 `json:"co2,omitempty"`
	FineDust    *float64 `json:"fine_dust,omitempty"`
}

type sensorDeviceState struct {
	Device string                    `json:"device"`
	Subs   map[string]sensorSubState `json:"subs"`
}

func marshalSensorState(entry coordinator.Entry[coordinator.SensorState]) ([]byte, error) {
	state := sensorDeviceState{
		Device: entry.Info.Name,
		Subs:   make(map[string]sensorSubState, len(entry.Subs)),
	}
	for id, s := range entry.Subs {
		state.Subs[strconv.Itoa(id)] = sensorSubState{
			Name:        s.Name,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
			CO2:         s.CO2,
			FineDust:    s.FineDust,
		}
	}
	return json.Marshal(state)
}

type climateSubState struct {
	Name        string   `json:"name"`
	On          bool     `json:"on"`
	CurrentTemp *float64 `json:"current_temp,omitempty"`
	TargetTemp  *float64 `json:"target_temp,omitempty"`
}

type climateDeviceState struct {
	Device string                     `json:"device"`
	Subs   map[string]climateSubState `json:"subs"`
}

func marshalClimateState(entry coordinator.Entry[coordinator.ClimateState]) ([]byte, error) {
	state := climateDeviceState{
		Device: entry.Info.Name,
		Subs:   make(map[string]climateSubState, len(entry.Subs)),
	}
	for id, s := range entry.Subs {
		state.Subs[strconv.Itoa(id)] = climateSubState{
			Name:        s.Name,
			On:          s.On,
			CurrentTemp: s.CurrentTemp,
			TargetTemp:  s.TargetTemp,
		}
	}
	return json.Marshal(state)
}

type ventilationSubState struct {
	Name  string `json:"name"`
	On    bool   `json:"on"`
	Speed int    `json:"speed"`
}

type ventilationDeviceState struct {
	Device string                         `json:"device"`
	Subs   map[string]ventilationSubState `json:"subs"`
}

func marshalVentilationState(entry coordinator.Entry[coordinator.VentilationState]) ([]byte, error) {
	state := ventilationDeviceState{
		Device: entry.Info.Name,
		Subs:   make(map[string]ventilationSubState, len(entry.Subs)),
	}
	for id, s := range entry.Subs {
		state.Subs[strconv.Itoa(id)] = ventilationSubState{
			Name:  s.Name,
			On:    s.On(),
			Speed: s.Speed,
		}
	}
	return json.Marshal(state)
}
