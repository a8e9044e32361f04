package id

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IDGenerator", func() {
	It("should generate sequential ids", func() {
		g := NewSequentialIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should restart for each sequential generator", func() {
		a := NewSequentialIDGenerator()
		b := NewSequentialIDGenerator()

		a.Generate()

		Expect(b.Generate()).To(Equal("1"))
	})

	It("should generate unique parallel ids", func() {
		g := NewParallelIDGenerator()

		Expect(g.Generate()).NotTo(Equal(g.Generate()))
	})
})
