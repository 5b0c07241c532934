package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/remotelog/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "remotelog.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	setenv := func(key, value string) {
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(os.Unsetenv, key)
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tempDir)
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
endpoint: "https://logs.example/ingest"
environment: "prod"

console:
  enabled: false

default_params:
  app: "checkout"
  region: "eu-west-1"

colors:
  info: "#00bcd4"

transport:
  timeout: "3s"
  queue_size: 64
  workers: 2
  rate_limit: 50
  rate_burst: 10
  breaker_threshold: 3
  breaker_reset: "1m"
  headers:
    authorization: "Bearer token"

logging:
  level: "debug"

metrics:
  address: ":9090"

ship:
  level: "warn"
  source: "nginx"
`)
			})

			It("should load the file", func() {
				cfg, err := config.Load(tempDir)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Endpoint).To(Equal("https://logs.example/ingest"))
				Expect(cfg.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Console.Enabled).To(BeFalse())
				Expect(cfg.Send.Enabled).To(BeTrue())
				Expect(cfg.DefaultParams).To(HaveKeyWithValue("app", "checkout"))
				Expect(cfg.Colors).To(HaveKeyWithValue("info", "#00bcd4"))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
				Expect(cfg.Metrics.Address).To(Equal(":9090"))
				Expect(cfg.Ship.Level).To(Equal(config.LogLevelWarn))
				Expect(cfg.Ship.Source).To(Equal("nginx"))
			})

			It("should parse transport settings", func() {
				cfg, err := config.Load(tempDir)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Transport.Timeout).To(Equal("3s"))
				Expect(cfg.Transport.QueueSize).To(Equal(64))
				Expect(cfg.Transport.Workers).To(Equal(2))
				Expect(cfg.Transport.RateLimit).To(Equal(50.0))
				Expect(cfg.Transport.RateBurst).To(Equal(10))
				Expect(cfg.Transport.BreakerThreshold).To(Equal(3))
				Expect(cfg.Transport.BreakerReset).To(Equal("1m"))
				Expect(cfg.Transport.Headers).To(HaveKeyWithValue("authorization", "Bearer token"))
			})

			It("should let environment variables override the file", func() {
				setenv("REMOTELOG_TRANSPORT_WORKERS", "8")
				setenv("REMOTELOG_SEND_ENABLED", "false")

				cfg, err := config.Load(tempDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Transport.Workers).To(Equal(8))
				Expect(cfg.Send.Enabled).To(BeFalse())
			})
		})

		Context("without a config file", func() {
			It("should use defaults and environment variables", func() {
				setenv("REMOTELOG_ENDPOINT", "http://localhost:9000/logs")

				cfg, err := config.Load(tempDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Endpoint).To(Equal("http://localhost:9000/logs"))
				Expect(cfg.Environment).To(Equal(config.EnvDev))
				Expect(cfg.Console.Enabled).To(BeTrue())
				Expect(cfg.Send.Enabled).To(BeTrue())
				Expect(cfg.Transport.QueueSize).To(Equal(256))
				Expect(cfg.Transport.Workers).To(Equal(4))
				Expect(cfg.Transport.BreakerThreshold).To(Equal(5))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelInfo))
				Expect(cfg.Metrics.BufferSize).To(Equal(1000))
				Expect(cfg.Ship.Level).To(Equal(config.LogLevelInfo))
			})

			It("should fail without an endpoint", func() {
				_, err := config.Load(tempDir)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a malformed file", func() {
			It("should return the read error", func() {
				writeConfig("endpoint: [unterminated")
				_, err := config.Load(tempDir)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{
				Endpoint:    "https://logs.example/ingest",
				Environment: config.EnvDev,
				Transport: config.TransportConfig{
					Timeout:          "10s",
					QueueSize:        256,
					Workers:          4,
					RateBurst:        1,
					BreakerThreshold: 5,
					BreakerReset:     "30s",
				},
				Logging: config.LoggingConfig{Level: config.LogLevelInfo},
				Metrics: config.MetricsConfig{BufferSize: 100},
				Ship:    config.ShipConfig{Level: config.LogLevelInfo},
			}
		})

		It("should accept a complete config", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		DescribeTable("rejecting bad values",
			func(mutate func(*config.Config)) {
				mutate(cfg)
				Expect(cfg.Validate()).NotTo(Succeed())
			},
			Entry("non-http endpoint", func(c *config.Config) { c.Endpoint = "ftp://logs.example" }),
			Entry("endpoint without host", func(c *config.Config) { c.Endpoint = "https://" }),
			Entry("unknown environment", func(c *config.Config) { c.Environment = "qa" }),
			Entry("unknown color level", func(c *config.Config) { c.Colors = map[string]string{"trace": "#fff"} }),
			Entry("bad color", func(c *config.Config) { c.Colors = map[string]string{"info": "blue"} }),
			Entry("bad timeout", func(c *config.Config) { c.Transport.Timeout = "soon" }),
			Entry("zero workers", func(c *config.Config) { c.Transport.Workers = 0 }),
			Entry("zero queue", func(c *config.Config) { c.Transport.QueueSize = 0 }),
			Entry("negative rate", func(c *config.Config) { c.Transport.RateLimit = -1 }),
			Entry("bad breaker reset", func(c *config.Config) { c.Transport.BreakerReset = "later" }),
			Entry("unknown diagnostics level", func(c *config.Config) { c.Logging.Level = "fatal" }),
			Entry("bad metrics address", func(c *config.Config) { c.Metrics.Address = "9090" }),
			Entry("zero metrics buffer", func(c *config.Config) { c.Metrics.BufferSize = 0 }),
			Entry("unknown ship level", func(c *config.Config) { c.Ship.Level = "trace" }),
		)

		It("should accept short and long hex colors", func() {
			cfg.Colors = map[string]string{"info": "#0bc", "warn": "ffc107"}
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should accept an empty metrics address", func() {
			cfg.Metrics.Address = ""
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
