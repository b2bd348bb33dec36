// Package cache implements a content-addressed compile cache: the key is
// sha256(source bytes || language hash string), and eviction is by a
// monotonic "height" counter so the least-recently-used entry is dropped
// first once the cache is full. Compile failures are cached too ("negative
// caching"), so a submission that keeps failing the same way doesn't pay
// the compiler cost on every retry.
package cache

import (
	"container/heap"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"zroj/internal/lang"
	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/runner"
	"zroj/pkg/errors"
)

// entry is one cache slot: the compiled binary's path plus the compile
// outcome that produced it, and the height used to rank it for eviction.
type entry struct {
	height int64
	hash   string
	result result.CompileResult
	index  int // heap index, maintained by container/heap
}

// entryHeap is a min-heap over entry.height: Pop always returns the
// least-recently-touched entry.
type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].height < h[j].height }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Cache is a bounded, LRU-evicted mapping from (source, language) to a
// compiled binary on disk.
type Cache struct {
	mu        sync.Mutex
	size      int64
	dir       string
	curHeight int64
	byHash    map[string]*entry
	order     entryHeap
	runner    runner.Runner
}

// New creates a Cache that stores compiled binaries under dir and holds at
// most size entries at once.
func New(size int64, dir string, r runner.Runner) *Cache {
	if size <= 0 {
		panic("cache size must be positive")
	}
	return &Cache{
		size:   size,
		dir:    dir,
		byHash: make(map[string]*entry),
		runner: r,
	}
}

// GetExec returns the path to a compiled binary for sourcePath under the
// given language option, compiling and caching it on first use. A cached
// compile failure is returned as a JudgerCacheCE error without
// recompiling.
func (c *Cache) GetExec(ctx context.Context, submissionID string, l lang.Option, sourcePath string) (string, error) {
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", errors.Wrap(err, errors.StoreOpenFile)
	}

	hash := seqHash(src, l.HashStr())
	dest := filepath.Join(c.dir, hash)

	c.mu.Lock()
	c.curHeight++
	height := c.curHeight
	if e, ok := c.byHash[hash]; ok {
		e.height = height
		heap.Fix(&c.order, e.index)
		c.mu.Unlock()
		if e.result.OK {
			return dest, nil
		}
		return "", errors.New(errors.JudgerCacheCE).WithDetail("compile_error", e.result.Error)
	}

	if int64(len(c.byHash)) >= c.size {
		evicted := heap.Pop(&c.order).(*entry)
		delete(c.byHash, evicted.hash)
		os.Remove(filepath.Join(c.dir, evicted.hash))
	}
	c.mu.Unlock()

	// Compile into a uniquely named staging directory rather than
	// directly at dest: two concurrent misses on the same hash (two
	// submissions racing to compile identical source) must not clobber
	// each other's intermediate files before either has finished.
	stagingDir := filepath.Join(c.dir, ".staging-"+uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return "", errors.Wrap(err, errors.StoreCreateParentDir)
	}
	defer os.RemoveAll(stagingDir)
	stagingBin := filepath.Join(stagingDir, filepath.Base(dest))

	compileSpec, err := l.CompileSpec(sourcePath, stagingBin, stagingDir)
	if err != nil {
		return "", err
	}
	compileSpec.SubmissionID = submissionID
	compileSpec.TestID = "compile-cache"

	compileResult, err := c.runner.Compile(ctx, runner.CompileRequest{
		SubmissionID: submissionID,
		RunSpec:      compileSpec,
	})
	if err != nil {
		return "", err
	}

	if compileResult.OK {
		if err := os.MkdirAll(c.dir, 0755); err != nil {
			return "", errors.Wrap(err, errors.StoreCreateParentDir)
		}
		if err := os.Rename(stagingBin, dest); err != nil {
			return "", errors.Wrap(err, errors.StoreOpenFile)
		}
	}

	c.mu.Lock()
	e := &entry{height: height, hash: hash, result: compileResult}
	c.byHash[hash] = e
	heap.Push(&c.order, e)
	c.mu.Unlock()

	if !compileResult.OK {
		return "", errors.New(errors.JudgerCacheCE).WithDetail("compile_error", compileResult.Error)
	}
	return dest, nil
}

func seqHash(src []byte, langHash string) string {
	h := sha256.New()
	h.Write(src)
	h.Write([]byte(langHash))
	return hex.EncodeToString(h.Sum(nil))
}
