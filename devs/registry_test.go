package devs

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var registry *Registry

	BeforeEach(func() {
		registry = NewRegistry()
	})

	It("should create registered behaviors", func() {
		registry.MustRegister("counter", func(init DynamicsInit) (Dynamics, error) {
			return &counter{count: init.Attributes["start"].(int)}, nil
		})

		d, err := registry.NewDynamics("counter", DynamicsInit{
			Attributes: map[string]any{"start": 3},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(d.(*counter).count).To(Equal(3))
	})

	It("should reject duplicate behaviors", func() {
		ctor := func(DynamicsInit) (Dynamics, error) { return &counter{}, nil }
		Expect(registry.Register("a", ctor)).To(Succeed())

		Expect(registry.Register("a", ctor)).NotTo(Succeed())
		Expect(func() { registry.MustRegister("a", ctor) }).To(Panic())
	})

	It("should fail on unknown behaviors", func() {
		_, err := registry.NewDynamics("nope", DynamicsInit{})

		Expect(err).To(HaveOccurred())
	})

	It("should list behaviors in order", func() {
		ctor := func(DynamicsInit) (Dynamics, error) { return &counter{}, nil }
		registry.MustRegister("b", ctor)
		registry.MustRegister("a", ctor)

		Expect(registry.Behaviors()).To(Equal([]string{"a", "b"}))
	})
})

var _ = Describe("Policies and kinds", func() {
	It("should parse confluence policies", func() {
		p, err := ParseConfluencePolicy("external-first")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(ConfluenceExternalFirst))
		Expect(p.String()).To(Equal("external-first"))

		_, err = ParseConfluencePolicy("sideways")
		Expect(err).To(HaveOccurred())
	})

	It("should parse view kinds", func() {
		k, err := ParseViewKind("Finish")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(FinishView))

		_, err = ParseViewKind("sometimes")
		Expect(err).To(HaveOccurred())
	})
})
