package models

import "time"

// KafkaBacktestRequestMessage is a request to replay a game table under a named strategy
type KafkaBacktestRequestMessage struct {
	RequestID string    `json:"request_id"`
	Strategy  string    `json:"strategy"`
	Games     []Game    `json:"games"`
	Timestamp time.Time `json:"timestamp"`
}

// KafkaBacktestResultMessage summarizes a completed run for downstream consumers
type KafkaBacktestResultMessage struct {
	RequestID string             `json:"request_id"`
	RunID     string             `json:"run_id"`
	Strategy  string             `json:"strategy"`
	Report    *PerformanceReport `json:"report,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}
