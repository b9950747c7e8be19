package emu

// Core identity reported to frontends.
const (
	Name    = "emopl"
	Version = "0.1.0"
)
