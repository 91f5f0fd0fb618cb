package config

const (
	defaultStagingDir          = "~/.local/share/rasteralign/staging"
	defaultLogDir              = "~/.local/share/rasteralign/logs"
	defaultLedgerPath          = "~/.local/share/rasteralign/ledger.db"
	defaultTargetEPSG          = 4326
	defaultTargetCRS           = "EPSG:4326"
	defaultDownsampleTolerance = 1.01
	defaultOutputSuffix        = "_norm"
	defaultSidecarName         = "extent.txt"
	defaultBurnValue           = 255
	defaultStaleAfterHours     = 48
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMetricsTextfile     = "~/.local/share/rasteralign/metrics/rasteralign.prom"
	defaultPublishDriver       = "s3"
	defaultPublishRegion       = "us-east-1"
	defaultPreviewWidthInches  = 8
	defaultPreviewHeightInches = 6
	defaultPreviewColors       = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		Grid: Grid{
			TargetCRS:           defaultTargetCRS,
			DownsampleTolerance: defaultDownsampleTolerance,
			OutputSuffix:        defaultOutputSuffix,
			SidecarName:         defaultSidecarName,
			BurnValue:           defaultBurnValue,
		},
		Formats: Formats{
			RasterExtensions:    []string{".asc", ".agr", ".png"},
			VectorExtensions:    []string{".shp"},
			CompanionExtensions: []string{".prj", ".aux.xml", ".pgw", ".pngw", ".wld", ".shx", ".dbf", ".cpg", ".xml"},
		},
		Staging: Staging{
			StaleAfterHours: defaultStaleAfterHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			TextfilePath: defaultMetricsTextfile,
		},
		Publish: Publish{
			Driver: defaultPublishDriver,
		},
		Preview: Preview{
			WidthInches:   defaultPreviewWidthInches,
			HeightInches:  defaultPreviewHeightInches,
			PaletteColors: defaultPreviewColors,
		},
	}
}
