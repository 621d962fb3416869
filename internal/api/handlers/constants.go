package handlers

import "time"

const (
	renderTimeout  = 2 * time.Minute
	composeTimeout = 120 * time.Second
	drummerTimeout = 120 * time.Second

	defaultDrummerModel = "gpt-5.1"
	defaultChordLength  = "w"

	contentTypeWAV = "audio/wav"
)
