package config

const (
	defaultDataDir            = "~/.local/share/regwatch"
	defaultLogDir             = "~/.local/share/regwatch/logs"
	defaultSiteDir            = "~/.local/share/regwatch/site"
	defaultAPIBind            = "127.0.0.1:7512"
	defaultRegsGovBaseURL     = "https://api.regulations.gov/v4"
	defaultRegsGovPageSize    = 250
	defaultRegsGovMaxPages    = 20
	defaultRegsGovTimeout     = 30
	defaultFedRegBaseURL      = "https://www.federalregister.gov/api/v1"
	defaultFedRegTimeout      = 30
	defaultLookbackDays       = 3
	defaultNewAnnounceDays    = 7
	defaultBlueskyService     = "https://bsky.social"
	defaultBlueskyTimeout     = 15
	defaultMaxPostsPerCycle   = 25
	defaultCycleInterval      = 86400
	defaultErrorRetryInterval = 300
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			SiteDir: defaultSiteDir,
			APIBind: defaultAPIBind,
		},
		RegulationsGov: RegulationsGov{
			BaseURL:        defaultRegsGovBaseURL,
			PageSize:       defaultRegsGovPageSize,
			MaxPages:       defaultRegsGovMaxPages,
			RequestTimeout: defaultRegsGovTimeout,
		},
		FederalRegister: FederalRegister{
			Enabled:        true,
			BaseURL:        defaultFedRegBaseURL,
			RequestTimeout: defaultFedRegTimeout,
		},
		Ingest: Ingest{
			LookbackDays:    defaultLookbackDays,
			NewAnnounceDays: defaultNewAnnounceDays,
			DocumentTypes:   []string{"Proposed Rule", "Notice"},
		},
		Bluesky: Bluesky{
			Service:          defaultBlueskyService,
			RequestTimeout:   defaultBlueskyTimeout,
			MaxPostsPerCycle: defaultMaxPostsPerCycle,
		},
		Workflow: Workflow{
			CycleInterval:      defaultCycleInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
