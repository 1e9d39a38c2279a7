package config

const (
	defaultVideoDir      = "~/.local/share/gavel/videos"
	defaultTranscriptDir = "~/.local/share/gavel/transcripts"
	defaultFinalDir      = "~/.local/share/gavel/transcripts-final"
	defaultReadableDir   = "~/.local/share/gavel/readable"
	defaultLogDir        = "~/.local/share/gavel/logs"
	defaultStateFile     = "~/.local/share/gavel/execution_log.json"
	defaultLockFile      = "~/.local/share/gavel/gavel.lock"

	defaultDownloadTimeoutSeconds = 3600
	defaultDownloadChunkSize      = 65536
	defaultDownloadMaxRetries     = 3

	defaultWhisperBinary              = "whisper"
	defaultWhisperModel               = "base"
	defaultWhisperLanguage            = "en"
	defaultTranscriptionTimeoutSecond = 7200

	defaultNoSpeechProbMin     = 0.6
	defaultAvgLogprobMax       = -0.5
	defaultCompressionRatioMax = 0.5
	defaultTemperatureMin      = 1.0
	defaultBadSegmentPct       = 0.5

	defaultS3Endpoint = "s3.amazonaws.com"
	defaultS3Region   = "us-east-1"
	defaultS3Prefix   = "videos/"

	defaultGrammarURL            = "http://localhost:8010/v2"
	defaultGrammarTimeoutSeconds = 60

	defaultHouseURL  = "https://house.mi.gov/VideoArchive"
	defaultSenateURL = "https://cloud.castus.tv/vod/misenate"

	defaultTelegramRequestTimeout = 10

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"

	defaultLockTimeoutSeconds      = 60
	defaultLockPollIntervalSeconds = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideoDir:      defaultVideoDir,
			TranscriptDir: defaultTranscriptDir,
			FinalDir:      defaultFinalDir,
			ReadableDir:   defaultReadableDir,
			LogDir:        defaultLogDir,
			StateFile:     defaultStateFile,
			LockFile:      defaultLockFile,
		},
		Download: Download{
			TimeoutSeconds: defaultDownloadTimeoutSeconds,
			ChunkSize:      defaultDownloadChunkSize,
			MaxRetries:     defaultDownloadMaxRetries,
		},
		Transcription: Transcription{
			Binary:         defaultWhisperBinary,
			Model:          defaultWhisperModel,
			Language:       defaultWhisperLanguage,
			TimeoutSeconds: defaultTranscriptionTimeoutSecond,
		},
		QC: QC{
			BadSegment: BadSegment{
				NoSpeechProbMin:     defaultNoSpeechProbMin,
				AvgLogprobMax:       defaultAvgLogprobMax,
				CompressionRatioMax: defaultCompressionRatioMax,
				TemperatureMin:      defaultTemperatureMin,
			},
			FailThresholds: FailThresholds{
				BadSegmentPct: defaultBadSegmentPct,
				WrongLanguage: true,
			},
		},
		S3: S3{
			Enabled:           false,
			Endpoint:          defaultS3Endpoint,
			Region:            defaultS3Region,
			Prefix:            defaultS3Prefix,
			DeleteAfterUpload: true,
		},
		Grammar: Grammar{
			Enabled:        false,
			URL:            defaultGrammarURL,
			TimeoutSeconds: defaultGrammarTimeoutSeconds,
		},
		Sources: Sources{
			House:  Source{Enabled: true, URL: defaultHouseURL},
			Senate: Source{Enabled: true, URL: defaultSenateURL},
		},
		Notifications: Notifications{
			Telegram: Telegram{
				Enabled:        false,
				RequestTimeout: defaultTelegramRequestTimeout,
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Lock: Lock{
			TimeoutSeconds:      defaultLockTimeoutSeconds,
			PollIntervalSeconds: defaultLockPollIntervalSeconds,
		},
	}
}
