package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/widget-server/internal/handlers"
	"github.com/angeloszaimis/widget-server/internal/server"
)

var _ = Describe("Command", func() {
	shell := func(script string) handlers.Command {
		return handlers.Command{
			Description: "shell",
			Name:        "sh",
			Args:        []string{"-c", script},
		}
	}

	Describe("Run", func() {
		It("should return stderr followed by stdout", func() {
			out, err := shell("echo out; echo err 1>&2").Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("err\nout\n"))
		})

		It("should keep the output of failing commands", func() {
			out, err := shell("echo partial; exit 3").Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("partial\n"))
		})

		It("should fail when the command cannot start", func() {
			c := handlers.Command{Name: "widget-server-no-such-command"}
			_, err := c.Run(context.Background())
			Expect(err).To(HaveOccurred())
		})

		It("should stop the command at its timeout", func() {
			c := shell("sleep 5")
			c.Timeout = 50 * time.Millisecond

			start := time.Now()
			_, err := c.Run(context.Background())

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		})

		It("should stop child processes holding the output open", func() {
			c := shell("sleep 5 | cat; echo done")
			c.Timeout = 50 * time.Millisecond

			start := time.Now()
			_, err := c.Run(context.Background())

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		})

		It("should stop background children when the caller cancels", func() {
			c := shell("sleep 5 & wait")
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err := c.Run(ctx)

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		})
	})

	It("should render the command line", func() {
		c := handlers.Command{Name: "ls", Args: []string{"-l", "/tmp"}}
		Expect(c.CommandLine()).To(Equal("$ ls -l /tmp"))
	})

	Describe("CommandPage", func() {
		It("should render the output in an HTML page", func() {
			h := handlers.NewCommandPage(shell("echo '<hello>'"))
			Expect(server.RequiresOffload(h)).To(BeTrue())

			resp, err := h.Handle(newRequestContext(http.MethodGet, "/shell", nil))
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Status).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal(server.ContentTypeTextHTML))
			Expect(string(resp.Body)).To(ContainSubstring("<title>shell</title>"))
			Expect(string(resp.Body)).To(ContainSubstring("Now: "))
			Expect(string(resp.Body)).To(ContainSubstring("$ sh -c echo"))
			Expect(string(resp.Body)).To(ContainSubstring("&lt;hello&gt;"))
		})

		It("should fail when the command cannot start", func() {
			h := handlers.NewCommandPage(handlers.Command{Name: "widget-server-no-such-command"})
			resp, err := h.Handle(newRequestContext(http.MethodGet, "/x", nil))
			Expect(err).To(HaveOccurred())
			Expect(resp).To(BeNil())
		})
	})

	Describe("CommandAPI", func() {
		It("should return the output as JSON", func() {
			h := handlers.NewCommandAPI(shell("echo 42"))
			Expect(server.RequiresOffload(h)).To(BeTrue())

			resp, err := h.Handle(newRequestContext(http.MethodGet, "/api/shell", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("Content-Type")).To(Equal(server.ContentTypeJSON))

			var decoded map[string]string
			Expect(json.Unmarshal(resp.Body, &decoded)).To(Succeed())
			Expect(decoded["command_line"]).To(Equal("$ sh -c echo 42"))
			Expect(decoded["output"]).To(Equal("42\n"))
			Expect(decoded["now"]).NotTo(BeEmpty())
		})
	})
})
