package internal

import "os"

// skipSystemLocale limits detection to the environment. Tests set it.
var skipSystemLocale = false

// localeEnvVars are consulted in order for money formatting.
var localeEnvVars = []string{"LC_MONETARY", "LC_ALL", "LANG"}

// detectSystemLocale returns the locale string used to pick a formatting
// locale: the environment first, so a terminal can override the OS setting,
// then the platform preference.
func detectSystemLocale() string {
	if locale := localeFromEnv(); locale != "" {
		return locale
	}
	if skipSystemLocale {
		return ""
	}
	return platformLocale()
}

func localeFromEnv() string {
	for _, key := range localeEnvVars {
		locale := os.Getenv(key)
		if locale != "" && locale != "C" && locale != "POSIX" {
			return locale
		}
	}
	return ""
}
