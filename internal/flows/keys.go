package flows

// Persisted key names. They match the browser local-storage layout so
// existing client data stays readable.
const (
	keyAttempts = "sec_attempts"
	keyLockout  = "sec_lockout"
	keyUnlocked = "sec_unlocked"
	keyUsage    = "sec_prompt_count"
)

// Keys names the four values that make up one device's gate state.
type Keys struct {
	Attempts string
	Lockout  string
	Unlocked string
	Usage    string
}

// KeysFor returns the key set for device. An empty device id maps to the bare
// key names.
func KeysFor(device string) Keys {
	if device == "" {
		return Keys{
			Attempts: keyAttempts,
			Lockout:  keyLockout,
			Unlocked: keyUnlocked,
			Usage:    keyUsage,
		}
	}
	p := device + ":"
	return Keys{
		Attempts: p + keyAttempts,
		Lockout:  p + keyLockout,
		Unlocked: p + keyUnlocked,
		Usage:    p + keyUsage,
	}
}

// All returns every key in the set.
func (k Keys) All() []string {
	return []string{k.Attempts, k.Lockout, k.Unlocked, k.Usage}
}
