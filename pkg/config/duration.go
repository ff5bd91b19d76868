package config

import (
	"time"
)

// DefaultLogWindow bounds the post-confirmation transaction log poll when the
// workspace config does not set one.
const DefaultLogWindow = Duration(10 * time.Second)

type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	p, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}

	*d = Duration(p)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) Value() time.Duration {
	return time.Duration(d)
}
