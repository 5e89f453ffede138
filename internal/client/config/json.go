package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/testmart/internal/flagx"
	"github.com/dmitrijs2005/testmart/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	GRPCAddr       string         `json:"grpc_addr"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJSON overlays cfg with the JSON file named by -c/-config. Keys absent
// from the file keep their current values.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	jc := JsonConfig{
		ServerURL:      cfg.ServerURL,
		GRPCAddr:       cfg.GRPCAddr,
		RequestTimeout: timex.Duration{Duration: cfg.RequestTimeout},
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.GRPCAddr = jc.GRPCAddr
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	return nil
}
