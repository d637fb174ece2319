package handlers_test

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/widget-server/internal/handlers"
	"github.com/angeloszaimis/widget-server/internal/server"
)

var _ = Describe("StaticFile", func() {
	var (
		dir     string
		fsPath  string
		modTime time.Time
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		fsPath = filepath.Join(dir, "report.txt")
		modTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		Expect(os.WriteFile(fsPath, []byte("report body"), 0o644)).To(Succeed())
		Expect(os.Chtimes(fsPath, modTime, modTime)).To(Succeed())
	})

	It("should run on the worker pool", func() {
		Expect(server.RequiresOffload(handlers.NewStaticFile(fsPath, "", 60))).To(BeTrue())
	})

	It("should serve the file with caching headers", func() {
		h := handlers.NewStaticFile(fsPath, "text/plain", 60)

		resp, err := h.Handle(newRequestContext(http.MethodGet, "/report.txt", nil))
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(string(resp.Body)).To(Equal("report body"))
		Expect(resp.Header.Get("Content-Type")).To(Equal("text/plain"))
		Expect(resp.Header.Get("Last-Modified")).To(Equal("Mon, 01 Jan 2024 00:00:00 GMT"))
		Expect(resp.Header.Get("Cache-Control")).To(Equal("public, max-age=60"))
	})

	DescribeTable("conditional requests",
		func(since string, status int) {
			h := handlers.NewStaticFile(fsPath, "text/plain", 60)
			header := http.Header{"If-Modified-Since": []string{since}}

			resp, err := h.Handle(newRequestContext(http.MethodGet, "/report.txt", header))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(status))
			Expect(resp.Header.Get("Last-Modified")).To(Equal("Mon, 01 Jan 2024 00:00:00 GMT"))
		},
		Entry("same instant", "Mon, 01 Jan 2024 00:00:00 GMT", http.StatusNotModified),
		Entry("later", "Tue, 02 Jan 2024 00:00:00 GMT", http.StatusNotModified),
		Entry("earlier", "Sun, 31 Dec 2023 23:59:59 GMT", http.StatusOK),
		Entry("ISO timestamp", "2024-01-01T00:00:00Z", http.StatusNotModified),
		Entry("garbage", "yesterday", http.StatusOK),
	)

	It("should derive the content type from the extension", func() {
		h := handlers.NewStaticFile(fsPath, "", 0)

		resp, err := h.Handle(newRequestContext(http.MethodGet, "/report.txt", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/plain"))
		Expect(resp.Header.Get("Cache-Control")).To(Equal("public, max-age=0"))
	})

	It("should return 404 when the file is missing", func() {
		h := handlers.NewStaticFile(filepath.Join(dir, "missing.txt"), "text/plain", 60)

		resp, err := h.Handle(newRequestContext(http.MethodGet, "/missing.txt", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusNotFound))
	})

	It("should return 404 for directories", func() {
		h := handlers.NewStaticFile(dir, "text/plain", 60)

		resp, err := h.Handle(newRequestContext(http.MethodGet, "/dir", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusNotFound))
	})

	It("should pick up changes to the file", func() {
		h := handlers.NewStaticFile(fsPath, "text/plain", 60)
		Expect(os.WriteFile(fsPath, []byte("updated"), 0o644)).To(Succeed())

		resp, err := h.Handle(newRequestContext(http.MethodGet, "/report.txt", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp.Body)).To(Equal("updated"))
	})
})
