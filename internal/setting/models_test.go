package setting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultUserSetting(t *testing.T) {
	assert.Equal(t, UserSetting{
		Temperature:        TemperatureCelsius,
		WindSpeedType:      SpeedTypeKMH,
		DailyNotification:  true,
		DangerNotification: true,
	}, DefaultUserSetting())
}

func TestParseUnits(t *testing.T) {
	temp, ok := ParseTemperature("FAHRENHEIT")
	assert.True(t, ok)
	assert.Equal(t, TemperatureFahrenheit, temp)

	for _, bad := range []string{"", "celsius", "INVALID_UNIT", "KMH"} {
		_, ok := ParseTemperature(bad)
		assert.False(t, ok, "temperature %q", bad)
	}

	speed, ok := ParseSpeedType("MPH")
	assert.True(t, ok)
	assert.Equal(t, SpeedTypeMPH, speed)

	_, ok = ParseSpeedType("knots")
	assert.False(t, ok)
}

func TestWithHelpersReplaceOneField(t *testing.T) {
	base := DefaultUserSetting()

	got := base.WithTemperature(TemperatureFahrenheit)
	assert.Equal(t, TemperatureFahrenheit, got.Temperature)
	assert.Equal(t, base.WindSpeedType, got.WindSpeedType)
	assert.Equal(t, base.DailyNotification, got.DailyNotification)
	assert.Equal(t, base.DangerNotification, got.DangerNotification)

	got = base.WithWindSpeedType(SpeedTypeMPH).WithDailyNotification(false).WithDangerNotification(false)
	assert.Equal(t, UserSetting{TemperatureCelsius, SpeedTypeMPH, false, false}, got)

	// Value receiver: the source setting is left as it was.
	assert.Equal(t, DefaultUserSetting(), base)
}
