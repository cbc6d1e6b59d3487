package configuration

// Configuration keys. These literal strings are shared with the rest of the
// platform and must not change.
const (
	KeyColorMode         = "ohos.system.colorMode"
	KeyColorModeSetByApp = "ohos.system.colorMode.isSetByApp"
	KeyColorModeSetBySA  = "ohos.system.colorMode.isSetBySa"
	KeyDirection         = "ohos.application.direction"
	KeyDensityDPI        = "ohos.application.densitydpi"
	KeyLanguage          = "ohos.system.language"
	KeyDeviceType        = "const.build.characteristics"
	KeyFontSizeScale     = "system.font.size.scale"
	KeyAppFontSizeScale  = "ohos.app.fontSizeScale"
	KeyAppFontMaxScale   = "ohos.app.fontMaxScale"
	KeyFont              = "ohos.application.font"
)

// Sentinel values.
const (
	ValueLight        = "light"
	ValueDark         = "dark"
	ValueAuto         = "auto"
	ValueSetByApp     = "isSetByApp"
	ValueSetBySA      = "isSetBySa"
	ValueVertical     = "vertical"
	ValueHorizontal   = "horizontal"
	ValueFollowSystem = "followSystem"
)

// KnownKeys lists the full key vocabulary.
var KnownKeys = []string{
	KeyColorMode,
	KeyColorModeSetByApp,
	KeyColorModeSetBySA,
	KeyDirection,
	KeyDensityDPI,
	KeyLanguage,
	KeyDeviceType,
	KeyFontSizeScale,
	KeyAppFontSizeScale,
	KeyAppFontMaxScale,
	KeyFont,
}

// IsKnownKey reports whether key belongs to the vocabulary.
func IsKnownKey(key string) bool {
	for _, k := range KnownKeys {
		if k == key {
			return true
		}
	}
	return false
}
