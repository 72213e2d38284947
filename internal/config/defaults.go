package config

const (
	defaultDataDir                   = "~/.local/share/lotscan/data"
	defaultLogDir                    = "~/.local/share/lotscan/logs"
	defaultMediaDir                  = "~/.local/share/lotscan/media"
	defaultAPIBind                   = "127.0.0.1:7519"
	defaultRecognitionBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultRecognitionModel          = "google/gemini-3-flash-preview"
	defaultRecognitionTitle          = "Lotscan VIN Recognition"
	defaultRecognitionTimeoutSeconds = 60
	defaultFrameCount                = 8
	defaultFrameQuality              = 2
	defaultFFmpegBinary              = "ffmpeg"
	defaultFFprobeBinary             = "ffprobe"
	defaultGeoTimeoutSeconds         = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			MediaDir: defaultMediaDir,
			APIBind:  defaultAPIBind,
		},
		Recognition: Recognition{
			BaseURL:        defaultRecognitionBaseURL,
			Model:          defaultRecognitionModel,
			Title:          defaultRecognitionTitle,
			TimeoutSeconds: defaultRecognitionTimeoutSeconds,
		},
		Video: Video{
			FrameCount:    defaultFrameCount,
			FrameQuality:  defaultFrameQuality,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Geolocation: Geolocation{
			TimeoutSeconds: defaultGeoTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
