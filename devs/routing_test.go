package devs

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Routing", func() {
	var (
		top    *Coupled
		gen    *Atomic
		a, d   *Atomic
		nested *Coupled
	)

	BeforeEach(func() {
		gen = NewAtomic("gen").WithOutputs("out")
		a = NewAtomic("A").WithInputs("p")
		d = NewAtomic("D").WithInputs("in")
		nested = NewCoupled("C").WithInputs("p").WithOutputs("q").
			WithChildren(a).
			MustConnect("", "p", "A", "p").
			MustConnect("", "p", "", "q")
		top = NewCoupled("Top").WithChildren(gen, nested, d).
			MustConnect("gen", "out", "C", "p").
			MustConnect("C", "q", "D", "in")
	})

	It("should route down into coupled models and through pass-throughs", func() {
		routes, err := resolveOutput(gen, "out")

		Expect(err).NotTo(HaveOccurred())
		Expect(routes).To(Equal([]route{
			{model: a, port: "p"},
			{model: d, port: "in"},
		}))
	})

	It("should route up through output boundaries", func() {
		b := NewAtomic("B").WithOutputs("o")
		Expect(nested.AddChild(b)).To(Succeed())
		Expect(nested.AddOutputPort("r")).Error().NotTo(HaveOccurred())
		Expect(nested.ConnectOutput(b, "o", "r")).To(Succeed())
		Expect(top.Connect("C", "r", "D", "in")).To(Succeed())

		routes, err := resolveOutput(b, "o")

		Expect(err).NotTo(HaveOccurred())
		Expect(routes).To(Equal([]route{{model: d, port: "in"}}))
	})

	It("should discard unconnected outputs", func() {
		lonely := NewAtomic("lonely").WithOutputs("out")
		Expect(top.AddChild(lonely)).To(Succeed())

		routes, err := resolveOutput(lonely, "out")

		Expect(err).NotTo(HaveOccurred())
		Expect(routes).To(BeEmpty())
	})

	It("should resolve an atomic input to itself", func() {
		routes, err := resolveInput(a, "p")

		Expect(err).NotTo(HaveOccurred())
		Expect(routes).To(Equal([]route{{model: a, port: "p"}}))
	})

	It("should report loops made of coupled ports only", func() {
		Expect(top.Connect("C", "q", "C", "p")).To(Succeed())

		_, err := resolveOutput(gen, "out")

		var structureErr *StructureError
		Expect(err).To(BeAssignableToTypeOf(structureErr))
	})
})
