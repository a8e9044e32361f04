package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	posA = &HookPos{Name: "A"}
	posB = &HookPos{Name: "B"}
)

type recordingHook struct {
	calls []HookCtx
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.calls = append(h.calls, ctx)
}

var _ = Describe("HookableBase", func() {
	var (
		domain *HookableBase
	)

	BeforeEach(func() {
		domain = &HookableBase{}
	})

	It("should invoke hooks in registration order", func() {
		order := []string{}
		domain.AcceptHook(&HookFunc{F: func(HookCtx) { order = append(order, "first") }})
		domain.AcceptHook(&HookFunc{F: func(HookCtx) { order = append(order, "second") }})

		domain.InvokeHook(HookCtx{Pos: posA})

		Expect(order).To(Equal([]string{"first", "second"}))
		Expect(domain.NumHooks()).To(Equal(2))
	})

	It("should pass the context through", func() {
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		domain.InvokeHook(HookCtx{Domain: domain, Pos: posB, Item: 42})

		Expect(hook.calls).To(HaveLen(1))
		Expect(hook.calls[0].Pos).To(BeIdenticalTo(posB))
		Expect(hook.calls[0].Item).To(Equal(42))
	})

	It("should panic on duplicated hooks", func() {
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
	})

	It("should remove hooks", func() {
		hook := &recordingHook{}
		domain.AcceptHook(hook)
		domain.RemoveHook(hook)
		domain.RemoveHook(hook)

		domain.InvokeHook(HookCtx{Pos: posA})

		Expect(hook.calls).To(BeEmpty())
		Expect(domain.Hooks()).To(BeEmpty())
	})

	It("should filter hook funcs by position", func() {
		count := 0
		domain.AcceptHook(&HookFunc{
			Positions: []*HookPos{posB},
			F:         func(HookCtx) { count++ },
		})

		domain.InvokeHook(HookCtx{Pos: posA})
		domain.InvokeHook(HookCtx{Pos: posB})

		Expect(count).To(Equal(1))
	})
})
