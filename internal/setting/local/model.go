// Package local is the data layer for user settings: the persisted model, the
// codec between it and the domain entity, and the repository backed by a
// preference store.
package local

// TemperatureModel is the persisted form of a temperature unit. It mirrors
// setting.Temperature today but is versioned with the storage schema.
type TemperatureModel string

const (
	TemperatureModelCelsius    TemperatureModel = "CELSIUS"
	TemperatureModelFahrenheit TemperatureModel = "FAHRENHEIT"
)

func (t TemperatureModel) Name() string {
	return string(t)
}

func parseTemperatureModel(name string) (TemperatureModel, bool) {
	switch TemperatureModel(name) {
	case TemperatureModelCelsius, TemperatureModelFahrenheit:
		return TemperatureModel(name), true
	}
	return "", false
}

// SpeedTypeModel is the persisted form of a wind speed unit.
type SpeedTypeModel string

const (
	SpeedTypeModelKMH SpeedTypeModel = "KMH"
	SpeedTypeModelMPH SpeedTypeModel = "MPH"
)

func (s SpeedTypeModel) Name() string {
	return string(s)
}

func parseSpeedTypeModel(name string) (SpeedTypeModel, bool) {
	switch SpeedTypeModel(name) {
	case SpeedTypeModelKMH, SpeedTypeModelMPH:
		return SpeedTypeModel(name), true
	}
	return "", false
}

// UserSettingModel is the persisted settings record.
type UserSettingModel struct {
	Temperature        TemperatureModel
	WindSpeedType      SpeedTypeModel
	DailyNotification  bool
	DangerNotification bool
}

// DefaultUserSettingModel is what an uninitialized container decodes to.
func DefaultUserSettingModel() UserSettingModel {
	return UserSettingModel{
		Temperature:        TemperatureModelCelsius,
		WindSpeedType:      SpeedTypeModelKMH,
		DailyNotification:  true,
		DangerNotification: true,
	}
}
