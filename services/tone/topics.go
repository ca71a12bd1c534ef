// services/tone/topics.go
package tone

import "tonegen-go/bus"

// Opaque-topic helpers

func topicConfig() bus.Topic { return bus.T("config", "tone") }

func topicInfo() bus.Topic  { return bus.T("tone", "info") }
func topicState() bus.Topic { return bus.T("tone", "state") }
func topicValue() bus.Topic { return bus.T("tone", "value") }

// tone/control/<verb>
func ctrlWildcard() bus.Topic { return bus.T("tone", "control", "+") }

// Control verbs
const (
	ctrlSetFreq = "set_freq"
	ctrlSelect  = "select"
	ctrlReadNow = "read_now"
	ctrlStop    = "stop"
	ctrlStart   = "start"
)
