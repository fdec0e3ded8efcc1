package config

import (
	"strings"
	"time"
)

const defaultGatewayURL = "http://localhost:3000/api/v1"

type GatewayConfig interface {
	GetGatewayURL() string
	GetGatewayTimeout() time.Duration
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

// GetGatewayURL prefers BACKEND_API_URL and falls back to NEXT_PUBLIC_API_URL
func (Gateway) GetGatewayURL() string {
	url := GetEnv("BACKEND_API_URL", GetEnv("NEXT_PUBLIC_API_URL", defaultGatewayURL))
	return strings.TrimRight(url, "/")
}

func (Gateway) GetGatewayTimeout() time.Duration {
	return GetEnvDuration("GATEWAY_TIMEOUT", 15*time.Second)
}
