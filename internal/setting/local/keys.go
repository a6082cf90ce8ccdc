package local

import "github.com/i474232898/simple-weather/internal/prefstore"

// Persisted key names. They must never change: existing installs depend on
// them.
var (
	TemperatureKey        = prefstore.StringKey("temperature_key")
	SpeedTypeKey          = prefstore.StringKey("speed_type_key")
	DailyNotificationKey  = prefstore.BoolKey("daily_noti_key")
	DangerNotificationKey = prefstore.BoolKey("danger_noti_key")
)
