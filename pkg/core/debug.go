package core

// DebugMode controls whether render errors capture stack traces and whether
// roots log pass boundaries at trace level.
var DebugMode = true

// SetDebugMode enables or disables debug mode for the reconciler.
func SetDebugMode(debug bool) {
	DebugMode = debug
}
