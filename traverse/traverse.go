// Package traverse implements the parallel recursive directory walk: a pool
// of D worker goroutines sharing a directory-work queue (Q0) internally and
// feeding the caller's file-work queue (Q1) with FileIdentities that have
// already passed TypeManager classification.
package traverse

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ravelsoft/ucg/fileid"
	"github.com/ravelsoft/ucg/filetype"
	"github.com/ravelsoft/ucg/queue"
)

// devIno is the visited-set key for cycle/duplication avoidance.
type devIno struct {
	dev, ino uint64
}

// Pool is a set of D traversal workers sharing one internal directory queue.
type Pool struct {
	workers int
	types   *filetype.Registry
	log     *slog.Logger

	visitedMu sync.Mutex
	visited   map[devIno]struct{}
}

// NewPool creates a traversal pool of the given worker count, classifying
// discovered files against reg. log receives per-directory failure
// diagnostics; if nil, slog.Default() is used.
func NewPool(workers int, reg *filetype.Registry, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		workers: workers,
		types:   reg,
		log:     log,
		visited: make(map[devIno]struct{}),
	}
}

// Run seeds Q0 from roots (path arguments as the user typed them), walks the
// tree, and pushes classified regular files onto q1. Files found under a
// directory root have a RelPath relative to that root; a regular-file root's
// RelPath is the argument itself. It blocks until the whole tree has been
// walked and every traversal worker has exited, then returns; the caller is
// responsible for closing q1 afterward per §4.F.
//
// A root that cannot be resolved or stat'd at all is a fatal condition (the
// user named a path that doesn't exist) and is reported as Run's error,
// exactly like grep erroring out on a missing argument; it does not stop
// traversal of the other roots. This is distinct from a mid-walk I/O error
// on a subtree (see processDir), which is tolerated by design and only
// logged.
func (p *Pool) Run(roots []string, q1 *queue.Queue[*fileid.FileIdentity]) error {
	q0 := queue.New[*fileid.FileIdentity]()

	var firstSeedErr error
	for _, root := range roots {
		if err := p.seedRoot(root, q0, q1); err != nil && firstSeedErr == nil {
			firstSeedErr = err
		}
	}

	var g errgroup.Group
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			p.workerLoop(q0, q1)
			return nil
		})
	}

	q0.WaitForIdleQuorum(p.workers)
	q0.Close()
	if err := g.Wait(); err != nil {
		return err
	}
	return firstSeedErr
}

// seedRoot resolves one path argument to an absolute FileIdentity and either
// pushes it onto Q0 (directory) or straight onto Q1 (regular file), per
// §4.D "Regular-file roots bypass Q0 and go directly to Q1." It returns an
// error if root cannot be resolved to anything scannable.
func (p *Pool) seedRoot(root string, q0, q1 *queue.Queue[*fileid.FileIdentity]) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		p.log.Warn("cannot resolve root", "path", root, "error", err)
		return fmt.Errorf("resolve root %q: %w", root, err)
	}
	// A directory root has an empty label so that everything found under it
	// carries a path relative to the scan root; a regular-file root keeps
	// the argument as typed, since it has no root-relative name of its own.
	fi := fileid.NewAbsolute(abs)

	switch fi.Kind() {
	case fileid.KindDirectory:
		q0.Push(fi)
	case fileid.KindRegular:
		q1.Push(fileid.NewRoot(abs, root))
	case fileid.KindSymlink:
		switch fi.ResolvedKind() {
		case fileid.KindDirectory:
			q0.Push(fi)
		case fileid.KindRegular:
			q1.Push(fileid.NewRoot(abs, root))
		default:
			p.log.Warn("root is a symlink to neither a file nor a directory", "path", root)
			return fmt.Errorf("root %q is a symlink to neither a file nor a directory", root)
		}
	default:
		p.log.Warn("cannot stat root", "path", root, "error", fi.StatErr())
		return fmt.Errorf("cannot stat root %q: %w", root, fi.StatErr())
	}
	return nil
}

func (p *Pool) workerLoop(q0, q1 *queue.Queue[*fileid.FileIdentity]) {
	for {
		dir, status := q0.Pull()
		if status == queue.StatusClosed {
			return
		}
		p.processDir(dir, q0, q1)
	}
}

// processDir enumerates one directory and dispatches its entries per the
// §4.D worker-loop algorithm.
func (p *Pool) processDir(dir *fileid.FileIdentity, q0, q1 *queue.Queue[*fileid.FileIdentity]) {
	entries, err := os.ReadDir(dir.Path())
	if err != nil {
		p.log.Warn("cannot read directory, skipping subtree", "path", dir.Path(), "error", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		child := fileid.NewChild(dir, name)

		if entry.IsDir() {
			p.handleDirEntry(child, q0)
			continue
		}
		p.handleFileEntry(child, q1)
	}
}

func (p *Pool) handleDirEntry(child *fileid.FileIdentity, q0 *queue.Queue[*fileid.FileIdentity]) {
	if p.types.IsDirExcluded(child.Basename()) {
		return
	}
	dev, ino, ok := child.DevIno()
	if !ok {
		return // stat failed; nothing to recurse into
	}
	if p.markVisited(dev, ino) {
		return // already-visited directory: bind mount, hardlink, or symlink loop
	}
	q0.Push(child)
}

func (p *Pool) handleFileEntry(child *fileid.FileIdentity, q1 *queue.Queue[*fileid.FileIdentity]) {
	kind := child.Kind()
	if kind == fileid.KindStatFailed {
		return // stat failure: skip, per §4.D "Failure"
	}

	resolvedKind := kind
	if kind == fileid.KindSymlink {
		resolvedKind = child.ResolvedKind()
		if resolvedKind == fileid.KindDirectory {
			return // do not follow symlinks to directories
		}
		if resolvedKind == fileid.KindRegular {
			dev, ino, ok := child.ResolvedDevIno()
			if ok && p.markVisited(dev, ino) {
				return // already reached this target via another path
			}
		}
	}
	if resolvedKind != fileid.KindRegular {
		return
	}

	openFirstLine := func() (string, error) { return firstLineOf(child.Path()) }
	if p.types.Classify(child.Basename(), child.RelPath(), openFirstLine) {
		q1.Push(child)
	}
}

// markVisited records key in the visited set and reports whether it was
// already present.
func (p *Pool) markVisited(dev, ino uint64) bool {
	key := devIno{dev, ino}
	p.visitedMu.Lock()
	defer p.visitedMu.Unlock()
	if _, seen := p.visited[key]; seen {
		return true
	}
	p.visited[key] = struct{}{}
	return false
}

func firstLineOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", nil
	}
	line := buf[:n]
	for i, b := range line {
		if b == '\n' {
			line = line[:i]
			break
		}
	}
	return string(line), nil
}
