package core

// Mode selects how much runtime checking the engine performs.
type Mode uint8

const (
	ModeDebug Mode = iota
	ModeTest
	ModeRelease
)

func (m Mode) String() string {
	switch m {
	case ModeTest:
		return "test"
	case ModeRelease:
		return "release"
	default:
		return "debug"
	}
}

// BuildMode reports the mode selected at compile time through build tags.
func BuildMode() Mode {
	return buildMode
}

// ValidationAllowed reports whether validation layers may be enabled in this build.
func ValidationAllowed() bool {
	return buildMode != ModeRelease
}
