package devs

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/sim/hooking"
	"github.com/sarchlab/devs/sim/timing"
)

// spawner replaces the model "gen" with a new generator once.
type spawner struct {
	ExecutiveBase

	at   timing.VTime
	done bool
	err  error
}

func (s *spawner) Init(_ timing.VTime) timing.VTime {
	return s.at
}

func (s *spawner) TimeAdvance() timing.VTime {
	if s.done {
		return timing.Infinity
	}

	return s.at
}

func (s *spawner) InternalTransition(_ timing.VTime) error {
	s.done = true
	editor := s.Context().Structure()

	if err := editor.RemoveModel("gen"); err != nil {
		return err
	}

	replacement := NewAtomic("gen2").WithOutputs("out").
		WithDynamics(newGenerator(1, "b"))
	if err := editor.AddModel(replacement); err != nil {
		return err
	}

	return editor.AddConnection("gen2", "out", "cnt", "in")
}

// brittle panics when finished.
type brittle struct {
	DynamicsBase
}

func (b *brittle) Finish() {
	panic("cannot finish")
}

var _ = Describe("Structural changes", func() {
	var (
		builder Builder
		g       *generator
		cnt     *counter
		top     *Coupled
	)

	BeforeEach(func() {
		builder = MakeBuilder().WithLogger(testLogger())
		g = newGenerator(1, "a")
		cnt = &counter{}
		top, _, _ = genCounter(g, cnt)
	})

	It("should apply executive changes at the end of the bag", func() {
		Expect(top.AddChild(
			NewAtomic("exec").WithDynamics(&spawner{at: 2.5}))).To(Succeed())
		c := builder.WithEndTime(5).Build()

		Expect(c.Load(top)).To(Succeed())
		Expect(runAll(c)).To(Succeed())

		Expect(cnt.values).To(Equal([]any{"a", "a", "b", "b"}))
		Expect(cnt.times).To(Equal([]timing.VTime{1, 2, 3.5, 4.5}))
		Expect(g.finished).To(Equal(1))

		_, found := c.Simulator("Top.gen")
		Expect(found).To(BeFalse())
		_, found = c.Simulator("Top.gen2")
		Expect(found).To(BeTrue())
		_, found = top.Child("gen")
		Expect(found).To(BeFalse())

		Expect(c.Finish()).To(Succeed())
		Expect(g.finished).To(Equal(1))
	})

	It("should process executives after the other models of a bag", func() {
		exec := NewAtomic("exec").WithDynamics(&spawner{at: 1})
		root := NewCoupled("Root").WithChildren(exec)

		gen := NewAtomic("gen").WithOutputs("out").WithDynamics(newGenerator(1, "a"))
		c2 := NewAtomic("cnt").WithInputs("in").WithDynamics(&counter{})
		Expect(root.AddChild(gen)).To(Succeed())
		Expect(root.AddChild(c2)).To(Succeed())
		Expect(root.ConnectInternal(gen, "out", c2, "in")).To(Succeed())

		c := builder.WithEndTime(1).Build()
		order := []string{}
		c.AcceptHook(&hooking.HookFunc{
			Positions: []*hooking.HookPos{HookPosAfterTransition},
			F: func(ctx hooking.HookCtx) {
				order = append(order, ctx.Item.(TransitionInfo).Model)
			},
		})

		Expect(c.Load(root)).To(Succeed())
		Expect(runAll(c)).To(Succeed())

		Expect(order).To(Equal([]string{"Root.gen", "Root.cnt", "Root.exec"}))
	})

	It("should apply driver changes immediately between bags", func() {
		c := builder.Build()
		Expect(c.Load(top)).To(Succeed())

		more, err := c.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(more).To(BeTrue())

		Expect(c.RequestChange(RemoveModel{Path: "Top.gen"})).To(Succeed())

		Expect(g.finished).To(Equal(1))
		Expect(c.Simulators()).To(HaveLen(1))

		more, err = c.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(more).To(BeFalse())
		Expect(cnt.count).To(Equal(1))
	})

	It("should add ports and connections at runtime", func() {
		c := builder.WithEndTime(3).Build()
		Expect(c.Load(top)).To(Succeed())

		Expect(c.RequestChange(AddPort{
			Model: "Top.cnt", Port: "extra", Direction: InputPort,
		})).To(Succeed())
		Expect(c.RequestChange(AddConnection{
			Parent: "Top", From: "gen", FromPort: "out", To: "cnt", ToPort: "extra",
		})).To(Succeed())

		Expect(runAll(c)).To(Succeed())

		Expect(cnt.count).To(Equal(6))
	})

	It("should forget routes of removed connections", func() {
		c := builder.WithEndTime(3).Build()
		Expect(c.Load(top)).To(Succeed())

		more, err := c.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(more).To(BeTrue())

		Expect(c.RequestChange(RemoveConnection{
			Parent: "Top", From: "gen", FromPort: "out", To: "cnt", ToPort: "in",
		})).To(Succeed())
		Expect(runAll(c)).To(Succeed())

		Expect(cnt.count).To(Equal(1))
		Expect(g.emitted).To(Equal(3))
	})

	It("should detach observables of removed ports", func() {
		stream := &recorder{}
		c := builder.WithEndTime(2).WithView(ViewSpec{
			Name: "events", Kind: EventView, Stream: stream,
		}).Build()
		Expect(c.Load(top)).To(Succeed())

		Expect(c.RequestChange(ObservePort{
			Model: "Top.cnt", Port: "in", View: "events",
		})).To(Succeed())
		more, err := c.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(more).To(BeTrue())
		Expect(stream.observations).To(HaveLen(1))

		Expect(c.RequestChange(RemovePort{Model: "Top.cnt", Port: "in"})).
			To(Succeed())
		Expect(runAll(c)).To(Succeed())

		Expect(stream.observations).To(HaveLen(1))
		view, _ := c.View("events")
		Expect(view.Observables()).To(BeEmpty())
	})

	It("should reject unknown models", func() {
		c := builder.Build()
		Expect(c.Load(top)).To(Succeed())

		err := c.RequestChange(RemoveModel{Path: "Top.nope"})

		var structureErr *StructureError
		Expect(err).To(BeAssignableToTypeOf(structureErr))
	})

	It("should refuse to remove the root", func() {
		c := builder.Build()
		Expect(c.Load(top)).To(Succeed())

		Expect(c.RequestChange(RemoveModel{Path: "Top"})).NotTo(Succeed())
	})

	It("should refuse changes before load", func() {
		c := builder.Build()

		var stateErr *StateError
		Expect(c.RequestChange(RemoveModel{Path: "Top.gen"})).
			To(BeAssignableToTypeOf(stateErr))
	})
	It("should roll back a model that fails to instantiate", func() {
		c := builder.WithEndTime(3).Build()
		Expect(c.Load(top)).To(Succeed())

		ok := &counter{}
		sub := NewCoupled("sub").WithChildren(
			NewAtomic("ok").WithInputs("in").WithDynamics(ok),
			NewAtomic("bad").WithBehavior("missing", nil),
		)

		err := c.RequestChange(AddModel{Parent: "Top", Model: sub})

		var structureErr *StructureError
		Expect(err).To(BeAssignableToTypeOf(structureErr))
		Expect(c.Failure()).NotTo(HaveOccurred())

		_, found := top.Child("sub")
		Expect(found).To(BeFalse())
		Expect(sub.Parent()).To(BeNil())
		Expect(c.Simulators()).To(HaveLen(2))
		_, found = c.Simulator("Top.sub.ok")
		Expect(found).To(BeFalse())

		Expect(runAll(c)).To(Succeed())
		Expect(cnt.count).To(Equal(3))

		Expect(c.Finish()).To(Succeed())
		Expect(ok.finished).To(Equal(0))
		Expect(cnt.finished).To(Equal(1))
	})

	It("should remove every model even when one fails to finish", func() {
		rest := &counter{}
		sub := NewCoupled("sub").WithChildren(
			NewAtomic("brittle").WithDynamics(&brittle{}),
			NewAtomic("rest").WithInputs("in").WithDynamics(rest),
		)
		Expect(top.AddChild(sub)).To(Succeed())

		c := builder.WithEndTime(3).Build()
		Expect(c.Load(top)).To(Succeed())

		err := c.RequestChange(RemoveModel{Path: "Top.sub"})

		var dynamicsErr *DynamicsError
		Expect(errors.As(err, &dynamicsErr)).To(BeTrue())
		Expect(dynamicsErr.Model).To(Equal("Top.sub.brittle"))

		_, found := top.Child("sub")
		Expect(found).To(BeFalse())
		Expect(rest.finished).To(Equal(1))
		Expect(c.Simulators()).To(HaveLen(2))

		Expect(runAll(c)).To(Succeed())
		Expect(cnt.count).To(Equal(3))
	})

	It("should refuse structure edits from a root atomic model", func() {
		solo := &counter{}
		c := builder.Build()
		Expect(c.Load(NewAtomic("Solo").WithDynamics(solo))).To(Succeed())

		err := solo.Context().Structure().AddOutputPort("", "out")

		var structureErr *StructureError
		Expect(errors.As(err, &structureErr)).To(BeTrue())
		Expect(structureErr.Model).To(Equal("Solo"))
		Expect(structureErr.Reason).To(ContainSubstring("root model"))
	})
})
