package local

import (
	"github.com/i474232898/simple-weather/internal/prefstore"
	"github.com/i474232898/simple-weather/internal/setting"
)

// ToPersisted maps the domain entity to its persisted model. Unknown domain
// values fall back to the model defaults.
func ToPersisted(s setting.UserSetting) UserSettingModel {
	def := DefaultUserSettingModel()

	temperature, ok := parseTemperatureModel(s.Temperature.String())
	if !ok {
		temperature = def.Temperature
	}
	speed, ok := parseSpeedTypeModel(s.WindSpeedType.String())
	if !ok {
		speed = def.WindSpeedType
	}

	return UserSettingModel{
		Temperature:        temperature,
		WindSpeedType:      speed,
		DailyNotification:  s.DailyNotification,
		DangerNotification: s.DangerNotification,
	}
}

// ToDomain maps a persisted model to the domain entity, resolving each unit by
// name and substituting the domain default when the name is unknown.
func ToDomain(m UserSettingModel) setting.UserSetting {
	def := setting.DefaultUserSetting()

	temperature, ok := setting.ParseTemperature(m.Temperature.Name())
	if !ok {
		temperature = def.Temperature
	}
	speed, ok := setting.ParseSpeedType(m.WindSpeedType.Name())
	if !ok {
		speed = def.WindSpeedType
	}

	return setting.UserSetting{
		Temperature:        temperature,
		WindSpeedType:      speed,
		DailyNotification:  m.DailyNotification,
		DangerNotification: m.DangerNotification,
	}
}

// ReadModel decodes raw preferences. Every field that is missing, stored with
// the wrong type, or not a known name takes its default.
func ReadModel(p prefstore.Preferences) UserSettingModel {
	m := DefaultUserSettingModel()

	if name, ok := prefstore.Get(p, TemperatureKey); ok {
		if t, ok := parseTemperatureModel(name); ok {
			m.Temperature = t
		}
	}
	if name, ok := prefstore.Get(p, SpeedTypeKey); ok {
		if s, ok := parseSpeedTypeModel(name); ok {
			m.WindSpeedType = s
		}
	}
	if v, ok := prefstore.Get(p, DailyNotificationKey); ok {
		m.DailyNotification = v
	}
	if v, ok := prefstore.Get(p, DangerNotificationKey); ok {
		m.DangerNotification = v
	}
	return m
}

// WriteModel returns an edit that rewrites all four keys.
func WriteModel(m UserSettingModel) func(*prefstore.MutablePreferences) {
	return func(p *prefstore.MutablePreferences) {
		prefstore.Set(p, TemperatureKey, m.Temperature.Name())
		prefstore.Set(p, SpeedTypeKey, m.WindSpeedType.Name())
		prefstore.Set(p, DailyNotificationKey, m.DailyNotification)
		prefstore.Set(p, DangerNotificationKey, m.DangerNotification)
	}
}

// Decode is the full read path: raw preferences to domain entity.
func Decode(p prefstore.Preferences) setting.UserSetting {
	return ToDomain(ReadModel(p))
}

// Encode is the full write path: domain entity to a store edit.
func Encode(s setting.UserSetting) func(*prefstore.MutablePreferences) {
	return WriteModel(ToPersisted(s))
}
