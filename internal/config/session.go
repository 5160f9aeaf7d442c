package config

import "time"

type Session struct {
	IdleTimeout time.Duration
	Tick        time.Duration
}

func NewSession() (*Session, error) {
	idle, err := lookupDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	return &Session{IdleTimeout: idle, Tick: time.Second}, nil
}
