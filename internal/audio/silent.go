package audio

// SilentPlayer is a no-op Player for headless runs and development on
// machines without an audio player installed. It accepts every operation
// and produces no sound.
type SilentPlayer struct{}

// NewSilentFactory returns a PlayerFactory producing SilentPlayers.
func NewSilentFactory() PlayerFactory {
	return func() (Player, error) { return &SilentPlayer{}, nil }
}

func (*SilentPlayer) Load(string) error { return nil }
func (*SilentPlayer) SetLoop(bool)      {}
func (*SilentPlayer) SetVolume(float64) {}
func (*SilentPlayer) Play() error       { return nil }
func (*SilentPlayer) Pause()            {}
func (*SilentPlayer) Close()            {}
