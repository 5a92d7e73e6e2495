package shome

// Category identifies one polled device family. The string value is the
// path segment the cloud API uses for that family's endpoints.
type Category string

const (
	CategoryLight       Category = "light"
	CategorySensor      Category = "environment-sensor"
	CategoryAircon      Category = "aircon"
	CategoryHeater      Category = "heater"
	CategoryVentilation Category = "ventilator"
)

func (c Category) String() string { return string(c) }
