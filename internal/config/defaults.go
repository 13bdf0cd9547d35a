package config

const (
	defaultLogDir               = "~/.local/share/marquee/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultOMDbBaseURL          = "https://www.omdbapi.com/"
	defaultOMDbRequestTimeout   = 15
	defaultNegativeCacheTTL     = 3600
	defaultBatchSize            = 10
	defaultBatchDelayMS         = 100
	defaultMetadataTTLDays      = 7
	defaultPosterTTLDays        = 30
	defaultMaxPosters           = 150
	defaultMinFreeMiB           = 64
	defaultProbeAddress         = "www.omdbapi.com:443"
	defaultProbeIntervalSeconds = 30
	defaultProbeTimeoutSeconds  = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
			LogDir:  defaultLogDir,
		},
		OMDb: OMDb{
			BaseURL:          defaultOMDbBaseURL,
			RequestTimeout:   defaultOMDbRequestTimeout,
			NegativeCacheTTL: defaultNegativeCacheTTL,
		},
		Enrichment: Enrichment{
			BatchSize:       defaultBatchSize,
			BatchDelayMS:    defaultBatchDelayMS,
			MetadataTTLDays: defaultMetadataTTLDays,
			PosterTTLDays:   defaultPosterTTLDays,
			MaxPosters:      defaultMaxPosters,
		},
		Storage: Storage{
			MinFreeMiB: defaultMinFreeMiB,
		},
		Connectivity: Connectivity{
			ProbeAddress:  defaultProbeAddress,
			ProbeInterval: defaultProbeIntervalSeconds,
			ProbeTimeout:  defaultProbeTimeoutSeconds,
			Netlink:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
