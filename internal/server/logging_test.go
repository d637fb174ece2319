package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/widget-server/internal/server"
)

var _ = Describe("RequestLogger", func() {
	var (
		buf *bytes.Buffer
		rl  *server.RequestLogger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		rl = server.NewRequestLogger(slog.New(slog.NewJSONHandler(buf, nil)))
	})

	It("should log the request line, status, size and duration", func() {
		req := httptest.NewRequest(http.MethodGet, "/uptime?verbose=1", nil)
		rc := server.NewRequestContext(req, nil)

		rl.LogRequest(rc, server.StringResponse(http.StatusOK, server.ContentTypeTextPlain, "hello"))

		var entry map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())

		Expect(entry["msg"]).To(MatchRegexp(`^"GET /uptime\?verbose=1 HTTP/1\.1" 200 5 \d+\.\d{9}s$`))
		Expect(entry["request_id"]).To(Equal(rc.ID()))
		Expect(entry["status"]).To(BeEquivalentTo(200))
		Expect(entry["size"]).To(BeEquivalentTo(5))
		Expect(entry["lane"]).To(Equal("inline"))
		Expect(entry["duration_seconds"]).To(MatchRegexp(`^\d+\.\d{9}$`))
	})

	It("should report zero size for 304 responses", func() {
		rc := server.NewRequestContext(httptest.NewRequest(http.MethodGet, "/", nil), nil)

		rl.LogRequest(rc, &server.Response{Status: http.StatusNotModified, Body: []byte("ignored")})

		Expect(regexp.MustCompile(`" 304 0 `).Match(buf.Bytes())).To(BeTrue())
	})
})
