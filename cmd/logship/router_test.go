package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/remotelog/pkg/metrics"
	"github.com/angeloszaimis/remotelog/pkg/transport"
)

type staticBreakers map[string]transport.BreakerStatus

func (s staticBreakers) Breakers() map[string]transport.BreakerStatus {
	return s
}

var _ = Describe("router", func() {
	var collector *metrics.Collector

	BeforeEach(func() {
		collector = metrics.NewCollector(10, nil)
	})

	get := func(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("should serve the metrics snapshot", func() {
		rec := get(setupRouter(collector, staticBreakers{}), "/metrics")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

		var snap map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
		Expect(snap).To(HaveKey("calls"))
		Expect(snap).To(HaveKey("endpoints"))
	})

	It("should report ok while all breakers are closed", func() {
		rec := get(setupRouter(collector, staticBreakers{"https://a": {State: "CLOSED"}}), "/healthz")

		var resp healthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal("ok"))
		Expect(resp.Breakers).To(HaveKey("https://a"))
		Expect(resp.Breakers["https://a"].State).To(Equal("CLOSED"))
	})

	It("should report degraded while a breaker is open", func() {
		rec := get(setupRouter(collector, staticBreakers{"https://a": {State: "CLOSED"}, "https://b": {State: "OPEN", Failures: 5}}), "/healthz")

		var resp healthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal("degraded"))
		Expect(resp.Breakers["https://b"].Failures).To(Equal(5))
	})
})
