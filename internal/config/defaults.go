package config

const (
	defaultConfigPath          = "~/.config/therapyfinder/config.toml"
	defaultDataDir             = "~/.local/share/therapyfinder"
	defaultPlacesBaseURL       = "https://places.googleapis.com/v1"
	defaultPlacesTimeout       = 30
	defaultPlacesPageSize      = 20
	defaultPhotoMaxPx          = 800
	defaultSchemaVersion       = "auto"
	defaultNeighborhoodQuery   = "mental health therapists"
	defaultPageDelayMS         = 2000
	defaultScopeDelayMS        = 1000
	defaultMaxResultsPerScope  = 60
	defaultLoopIntervalSeconds = 3600
	defaultLoopTarget          = 50
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var (
	defaultQueries = []string{
		"therapist",
		"psychologist",
		"counselor",
		"psychotherapy",
		"mental health clinic",
		"family therapist",
	}
	defaultExcludeNames       = []string{"Starbucks", "Grocery"}
	defaultGeneralistKeywords = []string{
		"psychologist",
		"psychotherapist",
		"counselor",
		"therapist",
		"mental health",
		"social worker",
		"lcsw",
		"lmft",
		"psychiatrist",
	}
	defaultCoreCategories = []string{
		"Anxiety Therapy",
		"Depression Therapy",
		"Stress Management",
		"Individual Therapy",
		"Cognitive Behavioral Therapy",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Places: Places{
			BaseURL:        defaultPlacesBaseURL,
			TimeoutSeconds: defaultPlacesTimeout,
			PageSize:       defaultPlacesPageSize,
			PhotoMaxPx:     defaultPhotoMaxPx,
			SchemaVersion:  defaultSchemaVersion,
		},
		Scan: Scan{
			Queries:             append([]string(nil), defaultQueries...),
			NeighborhoodQuery:   defaultNeighborhoodQuery,
			PageDelayMS:         defaultPageDelayMS,
			ScopeDelayMS:        defaultScopeDelayMS,
			MaxResultsPerScope:  defaultMaxResultsPerScope,
			LoopIntervalSeconds: defaultLoopIntervalSeconds,
			LoopTarget:          defaultLoopTarget,
			ExcludeNames:        append([]string(nil), defaultExcludeNames...),
		},
		Taxonomy: Taxonomy{
			GeneralistKeywords: append([]string(nil), defaultGeneralistKeywords...),
			CoreCategories:     append([]string(nil), defaultCoreCategories...),
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
