package vfsfile_test

import (
	"time"

	"github.com/derektruong/fxvfs/internal/vfsfile"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Info", func() {
	Describe("NewInfo", func() {
		It("should split name and extension of a file", func() {
			modTime := time.Now()
			info := vfsfile.NewInfo("/share/sample-prefix/sample-object.txt", 42, modTime, false)
			Expect(info).To(And(
				HaveField("Path", "/share/sample-prefix/sample-object.txt"),
				HaveField("Name", "sample-object"),
				HaveField("Extension", "txt"),
				HaveField("Size", int64(42)),
				HaveField("ModTime", modTime),
				HaveField("IsDir", false),
			))
		})

		It("should keep an empty extension when the file has none", func() {
			info := vfsfile.NewInfo("/data/README", 1, time.Time{}, false)
			Expect(info.Name).To(Equal("README"))
			Expect(info.Extension).To(BeEmpty())
		})

		It("should use the base name for directories", func() {
			info := vfsfile.NewInfo("/data/reports.d", 0, time.Time{}, true)
			Expect(info.Name).To(Equal("reports.d"))
			Expect(info.Extension).To(BeEmpty())
			Expect(info.IsDir).To(BeTrue())
		})
	})
})
