package health

// Component identifies a monitored peripheral
type Component string

const (
	ComponentScale    Component = "scale"
	ComponentValve    Component = "valve"
	ComponentInfluxDB Component = "influxdb"
)

// ComponentHealth is the reported condition of one peripheral. Battery,
// weight and units are only populated for components that have them.
type ComponentHealth struct {
	Connected  bool     `json:"connected"`
	BatteryPct *int     `json:"battery_pct,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	Units      string   `json:"units,omitempty"`
}

// Report is one decoded health push covering all components.
type Report map[Component]ComponentHealth

// Scale returns the scale health, zero-valued when absent.
func (r Report) Scale() ComponentHealth {
	return r[ComponentScale]
}

// Valve returns the valve health, zero-valued when absent.
func (r Report) Valve() ComponentHealth {
	return r[ComponentValve]
}

// InfluxDB returns the data store health, zero-valued when absent.
func (r Report) InfluxDB() ComponentHealth {
	return r[ComponentInfluxDB]
}
