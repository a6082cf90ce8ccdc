package setting

// Temperature is the unit used to display temperatures.
type Temperature string

const (
	TemperatureCelsius    Temperature = "CELSIUS"
	TemperatureFahrenheit Temperature = "FAHRENHEIT"
)

// Temperatures lists every known temperature unit.
var Temperatures = []Temperature{TemperatureCelsius, TemperatureFahrenheit}

func (t Temperature) String() string {
	return string(t)
}

// ParseTemperature resolves a symbolic unit name. The boolean is false when
// the name matches no known unit.
func ParseTemperature(name string) (Temperature, bool) {
	for _, t := range Temperatures {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// SpeedType is the unit used to display wind speed.
type SpeedType string

const (
	SpeedTypeKMH SpeedType = "KMH"
	SpeedTypeMPH SpeedType = "MPH"
)

// SpeedTypes lists every known wind speed unit.
var SpeedTypes = []SpeedType{SpeedTypeKMH, SpeedTypeMPH}

func (s SpeedType) String() string {
	return string(s)
}

// ParseSpeedType resolves a symbolic unit name.
func ParseSpeedType(name string) (SpeedType, bool) {
	for _, s := range SpeedTypes {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// UserSetting is the validated, fully populated user preference record.
// It is a value: edits produce a new UserSetting instead of mutating one.
type UserSetting struct {
	Temperature        Temperature `json:"temperature"`
	WindSpeedType      SpeedType   `json:"windSpeedType"`
	DailyNotification  bool        `json:"dailyNotification"`
	DangerNotification bool        `json:"dangerNotification"`
}

// DefaultUserSetting returns the settings used before anything is persisted.
func DefaultUserSetting() UserSetting {
	return UserSetting{
		Temperature:        TemperatureCelsius,
		WindSpeedType:      SpeedTypeKMH,
		DailyNotification:  true,
		DangerNotification: true,
	}
}

func (u UserSetting) WithTemperature(t Temperature) UserSetting {
	u.Temperature = t
	return u
}

func (u UserSetting) WithWindSpeedType(s SpeedType) UserSetting {
	u.WindSpeedType = s
	return u
}

func (u UserSetting) WithDailyNotification(enabled bool) UserSetting {
	u.DailyNotification = enabled
	return u
}

func (u UserSetting) WithDangerNotification(enabled bool) UserSetting {
	u.DangerNotification = enabled
	return u
}
