package config

import (
	"log/slog"
	"time"

	"github.com/angeloszaimis/remotelog/pkg/metrics"
	"github.com/angeloszaimis/remotelog/pkg/remotelog"
	"github.com/angeloszaimis/remotelog/pkg/transport"
)

// LoggerOptions maps the gates, default params and colors onto logger
// options. Viper lowercases map keys, so default param names arrive
// lowercased.
func (c *Config) LoggerOptions() []remotelog.Option {
	opts := []remotelog.Option{
		remotelog.WithConsoleGate(remotelog.Bool(c.Console.Enabled)),
		remotelog.WithSendGate(remotelog.Bool(c.Send.Enabled)),
	}

	if len(c.DefaultParams) > 0 {
		opts = append(opts, remotelog.WithDefaultParams(remotelog.Fields(c.DefaultParams)))
	}

	if len(c.Colors) > 0 {
		colors := make(map[remotelog.Level]string, len(c.Colors))
		for name, hex := range c.Colors {
			level, err := remotelog.ParseLevel(name)
			if err != nil {
				continue
			}
			colors[level] = hex
		}
		opts = append(opts, remotelog.WithPrintColors(colors))
	}

	return opts
}

// TransportOptions assumes c has passed Validate.
func (c *Config) TransportOptions(recorder metrics.Recorder, logger *slog.Logger) []transport.Option {
	timeout, _ := time.ParseDuration(c.Transport.Timeout)
	reset, _ := time.ParseDuration(c.Transport.BreakerReset)

	opts := []transport.Option{
		transport.WithTimeout(timeout),
		transport.WithQueueSize(c.Transport.QueueSize),
		transport.WithWorkers(c.Transport.Workers),
		transport.WithRateLimit(c.Transport.RateLimit, c.Transport.RateBurst),
		transport.WithCircuitBreaker(c.Transport.BreakerThreshold, reset),
		transport.WithMetrics(recorder),
		transport.WithLogger(logger),
	}

	if len(c.Transport.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(c.Transport.Headers))
	}

	return opts
}
