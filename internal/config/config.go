package config

import "time"

const (
	WindowWidth  = 1280
	WindowHeight = 720

	VisualRingSize = 8192

	// Frame clock
	TimeStep = 0.016

	// Spectral analysis
	FFTSize        = 2048
	SampleRate     = 48000
	AnalyserSmooth = 0.7
	MinDecibels    = -100.0
	MaxDecibels    = -30.0
	PeakDecay      = 0.995
	PeakSeed       = 1e-6
	LevelEpsilon   = 1e-9
	SmoothingAlpha = 0.3
	GateLow        = 0.04
	GateMid        = 0.04
	GateHigh       = 0.08
	LowBandFromHz  = 20.0
	LowBandToHz    = 250.0
	MidBandFromHz  = 250.0
	MidBandToHz    = 4000.0
	HighBandFromHz = 4000.0
	HighBandToHz   = 20000.0

	// Starfield
	StarDensity     = 0.00015
	StarMin         = 120
	StarMax         = 1000
	StarMargin      = 40.0
	VideoStarFactor = 0.65

	// Spectrum
	SpectrumSamples = 128

	// Overlay
	LogoMarginTop   = 30.0
	LogoMarginRight = 30.0
	LogoSafePad     = 16.0

	// Background
	FadeAlphaBase  = 0.08
	FadeAlphaScale = 0.20

	// Auto-swap
	DefaultSwapSeconds = 12
	MinSwapPeriod      = 3 * time.Second

	// Remote levels push rate
	LevelsPushInterval = time.Second / 30

	// Control channel shared by both surfaces
	ControlChannel = "ar-controls"
)

// Config is the runtime configuration of the visualizer binary.
type Config struct {
	Addr         string
	AudioMode    string
	AudioFile    string
	RemoteLevels string
	ImageDir     string
	LogoPath     string
	VideoURL     string
	VideoFile    string
	Width        int
	Height       int
	Fullscreen   bool
	LogLevel     string
	Pretty       bool
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		Addr:      "127.0.0.1:8765",
		AudioMode: "mic",
		Width:     WindowWidth,
		Height:    WindowHeight,
		LogLevel:  "info",
	}
}
