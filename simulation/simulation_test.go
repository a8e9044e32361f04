package simulation

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/devs/stream"
	"github.com/sarchlab/devs/examples/gencounter"
	"github.com/sarchlab/devs/sim/timing"
)

var _ = Describe("Simulation", func() {
	var (
		builder  Builder
		registry *devs.Registry
	)

	BeforeEach(func() {
		logger, _ := test.NewNullLogger()
		registry = devs.NewRegistry()
		gencounter.Register(registry)

		builder = MakeBuilder().
			WithoutMonitoring().
			WithLogger(logger).
			WithFactory(registry)
	})

	It("should run a model to its end time", func() {
		top, err := gencounter.Build("gencounter", nil)
		Expect(err).NotTo(HaveOccurred())

		s := builder.WithEndTime(5).Build()
		defer s.Terminate()

		Expect(s.Execute(context.Background(), top)).To(Succeed())

		Expect(s.Bags()).To(Equal(5))
		Expect(s.Transitions().Count("Top.gen", devs.InternalTransition)).
			To(Equal(5))
		Expect(s.Transitions().Count("Top.cnt", devs.ExternalTransition)).
			To(Equal(5))
		Expect(s.Coordinator().State()).To(Equal(devs.StateFinished))
	})

	It("should stop between bags when the context is canceled", func() {
		top, err := gencounter.Build("gencounter", nil)
		Expect(err).NotTo(HaveOccurred())

		s := builder.Build()
		defer s.Terminate()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(s.Load(top)).To(Succeed())
		Expect(s.Run(ctx)).To(MatchError(context.Canceled))
		Expect(s.Bags()).To(Equal(0))
		Expect(s.Finish()).To(Succeed())
	})

	It("should deliver observations to the views", func() {
		top, err := gencounter.Build("gencounter", nil)
		Expect(err).NotTo(HaveOccurred())

		cnt, _ := top.FindByPath("cnt")
		cnt.(*devs.Atomic).Observe("in", "counts")

		mem := stream.NewMemory()
		s := builder.WithEndTime(3).WithView(devs.ViewSpec{
			Name: "counts", Kind: devs.EventView, Stream: mem,
		}).Build()
		defer s.Terminate()

		Expect(s.Execute(context.Background(), top)).To(Succeed())

		values := []any{}
		for _, o := range mem.Observations() {
			values = append(values, o.Value)
		}

		Expect(values).To(Equal([]any{0, 1, 2, 3}))
	})

	It("should record the run into SQLite", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		top, err := gencounter.Build("gencounter", nil)
		Expect(err).NotTo(HaveOccurred())

		s := builder.WithEndTime(2).WithSQLiteOutput(path).Build()

		cnt, _ := top.FindByPath("cnt")
		cnt.(*devs.Atomic).Observe("in", "counts")
		Expect(s.AddView(devs.ViewSpec{
			Name: "counts", Kind: devs.TimedView, Step: 1,
			Stream: s.SQLiteStream("counts"),
		})).To(Succeed())

		Expect(s.Execute(context.Background(), top)).To(Succeed())
		Expect(s.Terminate()).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		reader := datarecording.NewReader(path + ".sqlite3")
		defer reader.Close()
		reader.MapTable(TransitionTable, TransitionRow{})
		reader.MapTable("counts", stream.Row{})

		rows, _, err := reader.Query(context.Background(), TransitionTable,
			datarecording.QueryParams{OrderBy: "Model"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(Equal([]any{
			&TransitionRow{Model: "Top.cnt", External: 2},
			&TransitionRow{Model: "Top.gen", Internal: 2},
		}))

		_, total, err := reader.Query(context.Background(), "counts",
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))
	})

	It("should refuse a monitor port without monitoring", func() {
		Expect(func() {
			MakeBuilder().WithoutMonitoring().WithMonitorPort(8080).Build()
		}).To(Panic())
	})

	It("should start a monitor", func() {
		s := MakeBuilder().
			WithLogger(logrusNull()).
			WithEndTime(timing.VTime(1)).
			Build()
		defer s.Terminate()

		Expect(s.Monitor()).NotTo(BeNil())
		Expect(s.Monitor().URL()).To(HavePrefix("http://localhost:"))
	})
})

func logrusNull() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}
