//go:build !linux && !darwin

package source

const (
	protRead       = 0
	mapShared      = 0
	madvSequential = 0
)

func mmap(fd int, offset int64, length int, prot int, flags int) ([]byte, error) {
	return nil, errMmapUnsupported
}

func munmap(b []byte) error { return nil }

func madvise(b []byte, advice int) error { return nil }
