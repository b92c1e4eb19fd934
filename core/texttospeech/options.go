package texttospeech

type SynthesisOptions struct {
	// Voice selects the synthesis voice. Empty means the client default.
	Voice string
	// OutputDir is the directory the audio artifact is written to. Empty
	// means the system temp directory.
	OutputDir string
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.Voice = voice
	}
}

func WithOutputDir(dir string) SynthesisOption {
	return func(o *SynthesisOptions) {
		if dir == "" {
			return
		}

		o.OutputDir = dir
	}
}
