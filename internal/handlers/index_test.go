package handlers_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/widget-server/internal/handlers"
	"github.com/angeloszaimis/widget-server/internal/server"
)

var _ = Describe("Index", func() {
	var index *handlers.Index

	BeforeEach(func() {
		var err error
		index, err = handlers.NewIndex(handlers.IndexContent{
			Title:       "My <Widgets>",
			Commands:    []handlers.Link{{Path: "/uptime", Label: "uptime"}},
			Proxies:     []handlers.Link{{Path: "/proxy/example", Label: "Example"}},
			StaticPaths: []handlers.Link{{Path: "/static/report.txt", Label: "./static/report.txt"}},
		}, 60)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should run inline", func() {
		Expect(server.RequiresOffload(index)).To(BeFalse())
	})

	It("should render every link", func() {
		resp, err := index.Handle(newRequestContext(http.MethodGet, "/", nil))
		Expect(err).NotTo(HaveOccurred())

		body := string(resp.Body)
		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(Equal(server.ContentTypeTextHTML))
		Expect(body).To(ContainSubstring("<h2>My &lt;Widgets&gt;</h2>"))
		Expect(body).To(ContainSubstring(`<a href="/uptime">uptime</a>`))
		Expect(body).To(ContainSubstring(`<a href="/proxy/example">Example</a>`))
		Expect(body).To(ContainSubstring(`<a href="/static/report.txt">./static/report.txt</a>`))
		Expect(body).To(ContainSubstring(`href="/style.css"`))
		Expect(body).To(ContainSubstring("Last Modified: "))
	})

	It("should omit empty sections", func() {
		empty, err := handlers.NewIndex(handlers.IndexContent{Title: "Empty"}, 60)
		Expect(err).NotTo(HaveOccurred())

		resp, err := empty.Handle(newRequestContext(http.MethodGet, "/", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp.Body)).NotTo(ContainSubstring("Commands:"))
		Expect(string(resp.Body)).NotTo(ContainSubstring("Static Paths:"))
	})

	It("should send caching headers", func() {
		resp, err := index.Handle(newRequestContext(http.MethodGet, "/", nil))
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Header.Get("Last-Modified")).To(Equal(index.LastModified().UTC().Format(http.TimeFormat)))
		Expect(resp.Header.Get("Cache-Control")).To(Equal("public, max-age=60"))
	})

	It("should answer 304 for a fresh client copy", func() {
		header := http.Header{"If-Modified-Since": []string{index.LastModified().UTC().Format(http.TimeFormat)}}

		resp, err := index.Handle(newRequestContext(http.MethodGet, "/", header))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusNotModified))
		Expect(resp.Body).To(BeEmpty())
	})
})
