package document_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leaflet/pkg/document"
)

var _ = Describe("ExtractFile", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "extract-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("extracts a .txt file as a single page", func() {
		path := filepath.Join(tmpDir, "notes.txt")
		Expect(os.WriteFile(path, []byte("hello world"), 0o644)).To(Succeed())

		pages, err := document.ExtractFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(HaveLen(1))
		Expect(pages[0].Page).To(Equal(1))
		Expect(pages[0].Content).To(Equal("hello world"))
	})

	It("extracts a .md file as a single page", func() {
		path := filepath.Join(tmpDir, "readme.md")
		Expect(os.WriteFile(path, []byte("# Title"), 0o644)).To(Succeed())

		pages, err := document.ExtractFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(HaveLen(1))
	})

	It("rejects unsupported extensions", func() {
		path := filepath.Join(tmpDir, "image.png")
		Expect(os.WriteFile(path, []byte{0x89}, 0o644)).To(Succeed())

		_, err := document.ExtractFile(path)
		Expect(errors.Is(err, document.ErrUnsupportedType)).To(BeTrue())
	})
})
