package config

// Resolve merges defaults, the current session configuration and overrides
// into one effective configuration. Overrides win over current, which wins
// over defaults. Types is the exception: it is the ordered union of every
// layer's types, led by the primary name, so successive sessions accumulate
// job types instead of replacing them.
//
// Resolve has no side effects and never fails; malformed values are kept as given.
func Resolve(defaults, current Config, overrides ...Option) Config {
	cfg := layer(defaults.Clone(), current.Clone())

	override := Config{}
	for _, opt := range overrides {
		if opt == nil {
			continue
		}
		opt.Apply(&cfg)
		opt.Apply(&override)
	}

	cfg.Types = unionTypes(cfg.Name, defaults.Types, current.Types, override.Types)
	return cfg
}

// layer overlays current on base. An empty current keeps base untouched.
// Booleans cannot be told apart from "unset", so a non-empty current
// always decides RemoveOnComplete.
func layer(base, current Config) Config {
	if current.IsZero() {
		return base
	}
	if current.Name != "" {
		base.Name = current.Name
	}
	if current.Concurrency != 0 {
		base.Concurrency = current.Concurrency
	}
	if current.Timeout != 0 {
		base.Timeout = current.Timeout
	}
	if current.Attempts != 0 {
		base.Attempts = current.Attempts
	}
	if current.Backoff.Kind != "" {
		base.Backoff.Kind = current.Backoff.Kind
	}
	if current.Backoff.Delay != 0 {
		base.Backoff.Delay = current.Backoff.Delay
	}
	if current.Broker != "" {
		base.Broker = current.Broker
	}
	if current.Prefix != "" {
		base.Prefix = current.Prefix
	}
	if current.PollInterval != 0 {
		base.PollInterval = current.PollInterval
	}
	base.RemoveOnComplete = current.RemoveOnComplete
	return base
}

// unionTypes returns name followed by every distinct non-empty type, in order.
func unionTypes(name string, lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 1)
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	add(name)
	for _, list := range lists {
		for _, t := range list {
			add(t)
		}
	}
	return out
}
