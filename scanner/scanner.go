// Package scanner implements the per-file scan driver: a pool of S worker
// goroutines that pull FileIdentities from the files-to-scan queue, read and
// binary-sniff their contents, run the compiled pattern over them, and push
// non-empty MatchLists onto the results queue.
package scanner

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	mmap "github.com/blevesearch/mmap-go"

	"github.com/ravelsoft/ucg/fileid"
	"github.com/ravelsoft/ucg/match"
	"github.com/ravelsoft/ucg/queue"
	"github.com/ravelsoft/ucg/regexeng"
)

// sniffWindow is K in §4.F step 5: how many leading bytes are checked for a
// NUL byte before a file is declared binary and skipped.
const sniffWindow = 512

// mmapThreshold is the file size at or above which the scanner memory-maps
// instead of reading into a heap buffer, per §4.F step 4 "preferred for
// large files". Below it, a plain read avoids mmap's per-call syscall
// overhead on the small files that dominate most trees.
const mmapThreshold = 64 * 1024

// Pool is a set of S scanner workers sharing one compiled engine.
type Pool struct {
	workers int
	engine  *regexeng.Engine
	log     *slog.Logger

	filesScanned atomic.Int64
	bytesScanned atomic.Int64
}

// NewPool creates a scanner pool of the given worker count, all sharing eng
// read-only. log receives per-file diagnostics; if nil, slog.Default() is
// used.
func NewPool(workers int, eng *regexeng.Engine, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{workers: workers, engine: eng, log: log}
}

// Stats reports the number of files pulled for scanning (zero-size and
// unreadable files included) and bytes read across the pool's lifetime so
// far, for the --stats summary table. Safe to call
// concurrently with Run, though it is only meaningful once Run has
// returned.
func (p *Pool) Stats() (filesScanned, bytesScanned int64) {
	return p.filesScanned.Load(), p.bytesScanned.Load()
}

// Run pulls from q1 until closed+empty, scanning each file and pushing
// non-empty match lists onto q2. It blocks until every worker has exited,
// then returns; the caller closes q2 afterward (§4.F "Termination").
func (p *Pool) Run(q1 *queue.Queue[*fileid.FileIdentity], q2 *queue.Queue[*match.List]) {
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer wg.Done()
			p.workerLoop(q1, q2)
		}()
	}
	wg.Wait()
}

func (p *Pool) workerLoop(q1 *queue.Queue[*fileid.FileIdentity], q2 *queue.Queue[*match.List]) {
	for {
		f, status := q1.Pull()
		if status == queue.StatusClosed {
			return
		}
		p.scanOne(f, q2)
	}
}

// scanOne implements §4.F steps 2-7 for a single file.
func (p *Pool) scanOne(f *fileid.FileIdentity, q2 *queue.Queue[*match.List]) {
	p.filesScanned.Add(1)
	if f.Size() == 0 {
		return
	}

	buf, closeView, err := p.openView(f)
	if err != nil {
		p.log.Warn("cannot read file, skipping", "path", f.Path(), "error", err)
		return
	}
	defer closeView()
	p.bytesScanned.Add(int64(len(buf)))

	if looksBinary(buf) {
		return
	}

	list := p.engine.ScanBuffer(buf)
	if list.Empty() {
		return
	}
	list.Path = f.RelPath()
	q2.Push(list)
}

// openView obtains the (ptr, length) view of f's contents that §4.F step 4
// asks for: a memory map for files at or above mmapThreshold, a plain read
// otherwise. The returned closer must be called once the caller is done
// scanning buf.
func (p *Pool) openView(f *fileid.FileIdentity) (buf []byte, closer func(), err error) {
	if f.Size() < mmapThreshold {
		buf, err = os.ReadFile(f.Path())
		if err != nil {
			return nil, nil, err
		}
		return buf, func() {}, nil
	}

	file, err := os.Open(f.Path())
	if err != nil {
		return nil, nil, err
	}
	m, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return []byte(m), func() {
		m.Unmap()
		file.Close()
	}, nil
}

// looksBinary applies the NUL-byte heuristic over the first sniffWindow
// bytes of buf.
func looksBinary(buf []byte) bool {
	n := len(buf)
	if n > sniffWindow {
		n = sniffWindow
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
