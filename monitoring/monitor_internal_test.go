package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/devs/stream"
	"github.com/sarchlab/devs/sim/timing"
)

type pinger struct {
	devs.DynamicsBase

	Count int
	Label string
}

func (p *pinger) Init(_ timing.VTime) timing.VTime {
	return 1
}

func (p *pinger) TimeAdvance() timing.VTime {
	return 1
}

func (p *pinger) InternalTransition(_ timing.VTime) error {
	p.Count++
	return nil
}

func (p *pinger) Observation(_ devs.ObservationEvent) any {
	return p.Count
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		c      *devs.Coordinator
		router http.Handler
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		return rec
	}

	BeforeEach(func() {
		logger, _ := test.NewNullLogger()
		top := devs.NewCoupled("Top").WithChildren(
			devs.NewAtomic("ping").
				WithDynamics(&pinger{Label: "p"}).
				WithOutputs("out").
				Observe("out", "counts"),
		)

		c = devs.MakeBuilder().
			WithLogger(logger).
			WithEndTime(10).
			WithView(devs.ViewSpec{
				Name:   "counts",
				Kind:   devs.TimedView,
				Step:   2,
				Stream: stream.NewMemory(),
			}).
			Build()
		Expect(c.Load(top)).To(Succeed())

		for i := 0; i < 3; i++ {
			_, err := c.Run()
			Expect(err).NotTo(HaveOccurred())
		}

		m = NewMonitor()
		m.RegisterCoordinator(c)
		router = m.Router()
	})

	It("should report the current time", func() {
		rec := get("/api/now")

		Expect(rec.Code).To(Equal(http.StatusOK))

		rsp := nowRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Now).To(Equal("2"))
		Expect(rsp.State).To(Equal("running"))
		Expect(rsp.Paused).To(BeFalse())
	})

	It("should pause and continue the coordinator", func() {
		get("/api/pause")
		Expect(c.IsPaused()).To(BeTrue())

		rsp := nowRsp{}
		Expect(json.Unmarshal(get("/api/now").Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Paused).To(BeTrue())

		get("/api/continue")
		Expect(c.IsPaused()).To(BeFalse())
	})

	It("should report the progress towards the end time", func() {
		rsp := progressRsp{}
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &rsp)).
			To(Succeed())

		Expect(rsp.End).To(Equal("10"))
		Expect(rsp.Percent).NotTo(BeNil())
		Expect(*rsp.Percent).To(BeNumerically("~", 20))
	})

	It("should list the models", func() {
		paths := []string{}
		Expect(json.Unmarshal(get("/api/list_models").Body.Bytes(), &paths)).
			To(Succeed())

		Expect(paths).To(Equal([]string{"Top.ping"}))
	})

	It("should serialize the state of a model", func() {
		rec := get("/api/model/Top.ping")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should return 404 for unknown models", func() {
		rec := get("/api/model/Top.nope")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/notjson")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list the views", func() {
		views := []viewRsp{}
		Expect(json.Unmarshal(get("/api/views").Body.Bytes(), &views)).
			To(Succeed())

		Expect(views).To(HaveLen(1))
		Expect(views[0].Name).To(Equal("counts"))
		Expect(views[0].Kind).To(Equal("timed"))
		Expect(views[0].Step).To(Equal("2"))
		Expect(views[0].Observables).To(Equal([]string{"Top.ping:out"}))
	})

	It("should list no stream errors", func() {
		errs := []streamErrorRsp{}
		Expect(json.Unmarshal(get("/api/stream_errors").Body.Bytes(), &errs)).
			To(Succeed())

		Expect(errs).To(BeEmpty())
	})

	It("should report the resources of the process", func() {
		rsp := resourceRsp{}
		Expect(json.Unmarshal(get("/api/resource").Body.Bytes(), &rsp)).
			To(Succeed())

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should ignore port numbers below 1000", func() {
		Expect(NewMonitor().WithPortNumber(80).portNumber).To(Equal(0))
		Expect(NewMonitor().WithPortNumber(8080).portNumber).To(Equal(8080))
	})
})
