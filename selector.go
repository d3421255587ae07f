package sss

// Selector decides whether a periodic result is interesting enough to keep.
type Selector struct {
	Config *SelectorConfig
}

type SelectorConfig struct {
	Oscillators    bool    `toml:"oscillators" yaml:"oscillators"`
	MinOscPeriod   int     `toml:"min_osc_period" yaml:"min_osc_period"`
	MinShipPeriod  int     `toml:"min_ship_period" yaml:"min_ship_period"`
	FastShipPeriod int     `toml:"fast_ship_period" yaml:"fast_ship_period"`
	MinSpeed       float64 `toml:"min_speed" yaml:"min_speed"`
	Ignore         []Speed `toml:"ignore" yaml:"ignore"`
}

func NewSelector(config *SelectorConfig) *Selector {
	return &Selector{Config: config}
}

type SelectFailReason uint

func (r SelectFailReason) String() string {
	switch r {
	case 0:
		return "selected"
	case FailedOscillatorsDisabled:
		return "oscillators disabled"
	case FailedOscillatorPeriod:
		return "oscillator period too low"
	case FailedShipPeriod:
		return "ship period too low"
	case FailedIgnoredSpeed:
		return "ignored speed"
	case FailedStable:
		return "stable low period pattern"
	}
	return "unknown"
}

// Select returns 0 when s passes. Ships below MinShipPeriod still pass when
// they are fast enough and at least FastShipPeriod long.
func (s *Selector) Select(sp Speed) SelectFailReason {
	for _, ignored := range s.Config.Ignore {
		if ignored == sp {
			return FailedIgnoredSpeed
		}
	}
	if sp.Kind() == KindOscillator {
		if !s.Config.Oscillators {
			return FailedOscillatorsDisabled
		}
		if sp.Period < s.Config.MinOscPeriod {
			return FailedOscillatorPeriod
		}
		return 0
	}
	if sp.Period >= s.Config.MinShipPeriod {
		return 0
	}
	speed := (float64(sp.DX) + float64(sp.DY)/1.9) / float64(sp.Period)
	if speed > s.Config.MinSpeed && sp.Period >= s.Config.FastShipPeriod {
		return 0
	}
	return FailedShipPeriod
}
