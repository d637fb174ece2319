package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/widget-server/config"
)

const validConfig = `
server:
  address: ":8080"
  environment: "dev"
  shutdown_timeout: "3s"

workers:
  pool_size: 2
  max_pending: 8

logging:
  level: "debug"

main_page:
  title: "Test Widgets"
  cache_max_age_seconds: 30

proxy:
  timeout: "2s"
  failure_threshold: 3
  reset_timeout: "10s"

routes:
  - path: /uptime
    kind: command
    api_path: /api/uptime
    description: uptime
    command: uptime
    timeout: 5s
  - path: /proxy/example
    kind: proxy
    api_path: /api/proxy/example
    description: Example
    url: https://example.com
  - path: /static/report.txt
    kind: static
    fs_path: ./static/report.txt
    content_type: text/plain
    cache_max_age_seconds: 60
    include_in_main_page: true
`

var _ = Describe("Config", func() {
	var tempDir string

	writeConfig := func(content string) string {
		path := filepath.Join(tempDir, "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			var cfg *config.Config

			BeforeEach(func() {
				var err error
				cfg, err = config.Load(writeConfig(validConfig))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should parse server settings", func() {
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Server.ShutdownTimeoutDuration()).To(Equal(3 * time.Second))
				Expect(cfg.Server.MaxConnections).To(Equal(0))
			})

			It("should parse worker and proxy settings", func() {
				Expect(cfg.Workers.PoolSize).To(Equal(2))
				Expect(cfg.Workers.MaxPending).To(Equal(8))
				Expect(cfg.Proxy.TimeoutDuration()).To(Equal(2 * time.Second))
				Expect(cfg.Proxy.ResetTimeoutDuration()).To(Equal(10 * time.Second))
			})

			It("should fill defaults for omitted fields", func() {
				Expect(cfg.MainPage.Path).To(Equal("/"))
				Expect(cfg.Debug.Enabled).To(BeTrue())
				Expect(cfg.Debug.PathPrefix).To(Equal("/debug"))
			})

			It("should parse routes by kind", func() {
				Expect(cfg.Routes).To(HaveLen(3))

				commands := cfg.RoutesOfKind(config.KindCommand)
				Expect(commands).To(HaveLen(1))
				Expect(commands[0].Command).To(Equal("uptime"))
				Expect(commands[0].TimeoutDuration()).To(Equal(5 * time.Second))

				statics := cfg.RoutesOfKind(config.KindStatic)
				Expect(statics).To(HaveLen(1))
				Expect(statics[0].IncludeInMainPage).To(BeTrue())
				Expect(statics[0].CacheMaxAgeSeconds).To(Equal(60))
			})
		})

		It("should fail when the named file is missing", func() {
			_, err := config.Load(filepath.Join(tempDir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed YAML", func() {
			_, err := config.Load(writeConfig("server: [unterminated"))
			Expect(err).To(HaveOccurred())
		})

		It("should use defaults when no config file is found", func() {
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tempDir)).To(Succeed())
			DeferCleanup(os.Chdir, wd)

			cfg, err := config.Load("")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Address).To(Equal(":8080"))
			Expect(cfg.Workers.PoolSize).To(Equal(4))
			Expect(cfg.Routes).To(BeEmpty())
		})

		It("should apply environment overrides", func() {
			Expect(os.Setenv("WIDGETS_SERVER_ADDRESS", ":9090")).To(Succeed())
			Expect(os.Setenv("WIDGETS_WORKERS_POOL_SIZE", "6")).To(Succeed())
			Expect(os.Setenv("WIDGETS_WORKERS_MAX_PENDING", "12")).To(Succeed())
			DeferCleanup(os.Unsetenv, "WIDGETS_SERVER_ADDRESS")
			DeferCleanup(os.Unsetenv, "WIDGETS_WORKERS_POOL_SIZE")
			DeferCleanup(os.Unsetenv, "WIDGETS_WORKERS_MAX_PENDING")

			cfg, err := config.Load(writeConfig(validConfig))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Address).To(Equal(":9090"))
			Expect(cfg.Workers.PoolSize).To(Equal(6))
			Expect(cfg.Workers.MaxPending).To(Equal(12))
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			var err error
			cfg, err = config.Load(writeConfig(validConfig))
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("rejects invalid settings",
			func(mutate func(*config.Config), field string) {
				mutate(cfg)
				err := cfg.Validate()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(field))
			},
			Entry("bad environment", func(c *config.Config) { c.Server.Environment = "qa" }, "environment"),
			Entry("bad address", func(c *config.Config) { c.Server.Address = "nope" }, "address"),
			Entry("bad metrics address", func(c *config.Config) { c.Server.MetricsAddress = "a:b:c" }, "metrics_address"),
			Entry("negative max connections", func(c *config.Config) { c.Server.MaxConnections = -1 }, "max_connections"),
			Entry("bad shutdown timeout", func(c *config.Config) { c.Server.ShutdownTimeout = "soon" }, "shutdown_timeout"),
			Entry("zero pool size", func(c *config.Config) { c.Workers.PoolSize = 0 }, "pool_size"),
			Entry("max pending below pool size", func(c *config.Config) { c.Workers.MaxPending = 1 }, "max_pending"),
			Entry("bad log level", func(c *config.Config) { c.Logging.Level = "trace" }, "level"),
			Entry("relative main page path", func(c *config.Config) { c.MainPage.Path = "index" }, "path"),
			Entry("zero failure threshold", func(c *config.Config) { c.Proxy.FailureThreshold = 0 }, "failure_threshold"),
			Entry("relative debug prefix", func(c *config.Config) { c.Debug.PathPrefix = "debug" }, "path_prefix"),
			Entry("unknown route kind", func(c *config.Config) { c.Routes[0].Kind = "lambda" }, "kind"),
			Entry("command without command", func(c *config.Config) { c.Routes[0].Command = "" }, "command"),
			Entry("bad command timeout", func(c *config.Config) { c.Routes[0].Timeout = "-1s" }, "timeout"),
			Entry("proxy with bad scheme", func(c *config.Config) { c.Routes[1].URL = "ftp://example.com" }, "url"),
			Entry("static without file", func(c *config.Config) { c.Routes[2].FSPath = "" }, "fs_path"),
			Entry("static with api path", func(c *config.Config) { c.Routes[2].APIPath = "/api/report" }, "api_path"),
			Entry("path with query", func(c *config.Config) { c.Routes[0].Path = "/uptime?x=1" }, "path"),
		)

		DescribeTable("rejects duplicate paths",
			func(mutate func(*config.Config)) {
				mutate(cfg)
				err := cfg.Validate()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("already used by"))
			},
			Entry("two routes", func(c *config.Config) { c.Routes[1].Path = "/uptime" }),
			Entry("route and api path", func(c *config.Config) { c.Routes[1].Path = "/api/uptime" }),
			Entry("route and main page", func(c *config.Config) { c.Routes[0].Path = "/" }),
			Entry("route and debug page", func(c *config.Config) { c.Routes[0].Path = "/debug/metrics" }),
		)

		It("should allow debug paths to be reused when debug is disabled", func() {
			cfg.Debug.Enabled = false
			cfg.Routes[0].Path = "/debug/metrics"
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.DebugPaths()).To(BeEmpty())
		})

		It("should list the debug paths", func() {
			cfg.Debug.PathPrefix = "/_/"
			Expect(cfg.DebugPaths()).To(Equal([]string{"/_/config", "/_/environment", "/_/metrics"}))
		})
	})
})
