// Package appconfig records which provenance level owns each configuration axis.
//
// Colour mode keeps per-level history: the owning level is always the highest
// level whose last written value is light or dark, falling back to System.
// Font size and language keep only the current owning level; callers decide
// when to advance it.
//
// A Manager is created by the process entry point and injected into the
// application; there is no package-level instance.
//
// Example Usage:
//
//	m := appconfig.NewManager()
//	effective := m.SetColorModeSetLevel(level.SA, configuration.ColorModeDark)
//	owner := m.GetColorModeSetLevel()
package appconfig
