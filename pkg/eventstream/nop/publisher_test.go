package nop_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leaflet/pkg/eventstream"
	"github.com/papercomputeco/leaflet/pkg/eventstream/nop"
)

func TestNop(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Nop Publisher Suite")
}

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilEvent for nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishSessionIngested(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishTurnCompleted(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishSessionIngested(context.Background(), &eventstream.SessionIngestedEvent{})).To(Succeed())
		Expect(p.PublishTurnCompleted(context.Background(), &eventstream.TurnCompletedEvent{})).To(Succeed())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
