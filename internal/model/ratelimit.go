package model

// LimitPolicy : квота для одной операции.
// Таблица политик неизменяема и загружается один раз при старте.
type LimitPolicy struct {
	MaxRequests   int `yaml:"max_requests"`
	WindowSeconds int `yaml:"window_seconds"`
	BlockSeconds  int `yaml:"block_duration"`
}
