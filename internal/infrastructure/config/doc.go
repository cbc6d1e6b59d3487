// Package config loads host settings from the environment with envconfig.
// The server subcommand's flags override a few of them.
//
// Sections and variables:
//
//	Server     PORT, HOST
//	Logging    LOG_LEVEL, LOG_DEV
//	RateLimit  RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//	CORS       CORS_ALLOW_ORIGINS (comma separated)
//	Bundle     BUNDLE_NAME, BUNDLE_DIR
//	Initial    INITIAL_CONFIG_FILE, INITIAL_COLOR_MODE, INITIAL_LANGUAGE,
//	           INITIAL_DIRECTION, INITIAL_DENSITY_DPI, INITIAL_DEVICE_TYPE,
//	           INITIAL_FONT_SIZE_SCALE
//	System     SYSTEM_CONFIG_FILE, SYSTEM_CONFIG_DEBOUNCE
//
// Initial seeds the master configuration once. The file is decoded first
// and the individual variables override its entries. System names a file
// that keeps feeding System level updates while the server runs.
package config
