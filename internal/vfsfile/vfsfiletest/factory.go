package vfsfiletest

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/derektruong/fxvfs/internal/vfsfile"
)

// InfoFactory builds a random file Info, editFn may adjust it before returning.
func InfoFactory(editFn func(i *vfsfile.Info)) vfsfile.Info {
	ext := gofakeit.FileExtension()
	name := gofakeit.Word()
	info := vfsfile.Info{
		Path:      fmt.Sprintf("/%s/%s.%s", gofakeit.Word(), name, ext),
		Name:      name,
		Extension: ext,
		Size:      int64(gofakeit.Number(1, 1<<20)),
		ModTime:   gofakeit.PastDate(),
	}
	if editFn != nil {
		editFn(&info)
	}
	return info
}
