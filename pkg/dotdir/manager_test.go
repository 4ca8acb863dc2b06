package dotdir_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leaflet/pkg/dotdir"
)

func TestDotdir(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dotdir Suite")
}

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns existing directory without error", func() {
			result, err := m.Target(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(tmpDir))
		})
	})

	Describe("SessionState", func() {
		It("returns nil when no session state exists", func() {
			state, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips a saved session state", func() {
			saved := &dotdir.SessionState{
				SessionID: "sess-123",
				FileName:  "report.pdf",
			}
			Expect(m.SaveSessionState(saved, tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).NotTo(BeNil())
			Expect(loaded.SessionID).To(Equal("sess-123"))
			Expect(loaded.FileName).To(Equal("report.pdf"))
		})

		It("rejects saving a nil state", func() {
			Expect(m.SaveSessionState(nil, tmpDir)).NotTo(Succeed())
		})

		It("clears the session state", func() {
			saved := &dotdir.SessionState{SessionID: "sess-123"}
			Expect(m.SaveSessionState(saved, tmpDir)).To(Succeed())
			Expect(m.ClearSessionState(tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("is a no-op to clear when nothing is saved", func() {
			Expect(m.ClearSessionState(tmpDir)).To(Succeed())
		})
	})
})
