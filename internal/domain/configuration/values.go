package configuration

// ColorMode is the tri-state colour mode plus an unset marker.
type ColorMode int

const (
	ColorModeUnset ColorMode = iota
	ColorModeLight
	ColorModeDark
	ColorModeAuto
)

// ParseColorMode maps a wire value onto a ColorMode.
// The empty string parses as ColorModeUnset.
func ParseColorMode(s string) (ColorMode, bool) {
	switch s {
	case "":
		return ColorModeUnset, true
	case ValueLight:
		return ColorModeLight, true
	case ValueDark:
		return ColorModeDark, true
	case ValueAuto:
		return ColorModeAuto, true
	default:
		return ColorModeUnset, false
	}
}

// String returns the wire value, or "" for ColorModeUnset.
func (m ColorMode) String() string {
	switch m {
	case ColorModeLight:
		return ValueLight
	case ColorModeDark:
		return ValueDark
	case ColorModeAuto:
		return ValueAuto
	default:
		return ""
	}
}

// IsConcrete reports whether the mode names an explicit light or dark choice.
func (m ColorMode) IsConcrete() bool {
	return m == ColorModeLight || m == ColorModeDark
}

// Direction is the screen orientation.
type Direction int

const (
	DirectionUnset Direction = iota
	DirectionVertical
	DirectionHorizontal
)

// ParseDirection maps a wire value onto a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "":
		return DirectionUnset, true
	case ValueVertical:
		return DirectionVertical, true
	case ValueHorizontal:
		return DirectionHorizontal, true
	default:
		return DirectionUnset, false
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionVertical:
		return ValueVertical
	case DirectionHorizontal:
		return ValueHorizontal
	default:
		return ""
	}
}
