package main

import "time"

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// StatusFlags holds flags for the status command
type StatusFlags struct {
	APIUrl     string
	APITimeout time.Duration
}

// TriggerFlags holds flags for the trigger command
type TriggerFlags struct {
	Action     string
	Target     string
	ChordGated bool
	APIUrl     string
	APITimeout time.Duration
}

// TriggersFlags holds flags for the triggers listing command
type TriggersFlags struct {
	Limit      int
	APIUrl     string
	APITimeout time.Duration
}

// SimulateFlags holds flags for the simulate command
type SimulateFlags struct {
	Events     []string
	APIUrl     string
	APITimeout time.Duration
}

type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	PidFile    string
	LogFile    string
}
