package transfer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/logging"
	"copyartifacts/internal/services"
	"copyartifacts/internal/testsupport"
	"copyartifacts/internal/transfer"
)

type fixture struct {
	src  string
	dest string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	return fixture{src: filepath.Join(base, "src"), dest: filepath.Join(base, "library")}
}

func (f fixture) entry(t *testing.T, rel, content string) artifact.Entry {
	t.Helper()
	path := filepath.Join(f.src, filepath.FromSlash(rel))
	testsupport.WriteText(t, path, content)
	return artifact.Entry{
		Artifact: artifact.Artifact{Path: path, SourceDir: f.src, Subpath: filepath.Dir(filepath.FromSlash(rel))},
		Dest:     filepath.Join(f.dest, filepath.FromSlash(rel)),
		Owner:    f.src,
	}
}

func engine(mode artifact.Mode, deleteOriginals bool) *transfer.Engine {
	return transfer.NewEngine(transfer.Options{Mode: mode, DeleteOriginals: deleteOriginals}, logging.NewNop())
}

func single(t *testing.T, e *transfer.Engine, entry artifact.Entry) artifact.Outcome {
	t.Helper()
	outcomes := e.Execute(context.Background(), []artifact.Entry{entry})
	if len(outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(outcomes))
	}
	return outcomes[0]
}

func TestCopyCreatesParentsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "scans/inner/back.jpg", "jpeg bytes")
	e := engine(artifact.ModeCopy, true)

	first := single(t, e, entry)
	if first.Status != artifact.StatusTransferred || first.Err != nil {
		t.Fatalf("unexpected first outcome %+v", first)
	}
	if got := testsupport.ReadText(t, entry.Dest); got != "jpeg bytes" {
		t.Fatalf("unexpected destination content %q", got)
	}
	if !testsupport.Exists(t, entry.Artifact.Path) {
		t.Fatal("copy must keep the source")
	}

	second := single(t, e, entry)
	if second.Status != artifact.StatusUnchanged {
		t.Fatalf("expected unchanged on rerun, got %+v", second)
	}
}

func TestCopyConflictLeavesDestinationAlone(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "cover.jpg", "new")
	testsupport.WriteText(t, entry.Dest, "old")

	outcome := single(t, engine(artifact.ModeCopy, true), entry)
	if outcome.Status != artifact.StatusFailed {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if !errors.Is(outcome.Err, services.ErrTransferConflict) || outcome.Kind != services.KindTransferConflict {
		t.Fatalf("expected transfer conflict, got kind=%q err=%v", outcome.Kind, outcome.Err)
	}
	if got := testsupport.ReadText(t, entry.Dest); got != "old" {
		t.Fatalf("destination must not change, got %q", got)
	}
}

func TestDirectoryDestinationIsConflictInEveryMode(t *testing.T) {
	for _, mode := range []artifact.Mode{artifact.ModeCopy, artifact.ModeMove, artifact.ModeSymlink, artifact.ModeHardlink} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t)
			entry := f.entry(t, "notes.txt", "x")
			if err := os.MkdirAll(entry.Dest, 0o755); err != nil {
				t.Fatal(err)
			}
			outcome := single(t, engine(mode, true), entry)
			if outcome.Kind != services.KindTransferConflict {
				t.Fatalf("expected conflict, got %+v", outcome)
			}
		})
	}
}

func TestMoveOverwritesDifferingDestination(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "rip.log", "fresh log")
	testsupport.WriteText(t, entry.Dest, "stale")

	outcome := single(t, engine(artifact.ModeMove, true), entry)
	if outcome.Status != artifact.StatusTransferred {
		t.Fatalf("expected transfer, got %+v", outcome)
	}
	if got := testsupport.ReadText(t, entry.Dest); got != "fresh log" {
		t.Fatalf("expected overwrite, got %q", got)
	}
	if testsupport.Exists(t, entry.Artifact.Path) {
		t.Fatal("move must remove the source")
	}
}

func TestMoveRerunIsUnchanged(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "rip.log", "log")
	e := engine(artifact.ModeMove, true)

	if outcome := single(t, e, entry); outcome.Status != artifact.StatusTransferred {
		t.Fatalf("expected transfer, got %+v", outcome)
	}
	if outcome := single(t, e, entry); outcome.Status != artifact.StatusUnchanged {
		t.Fatalf("expected unchanged after source moved away, got %+v", outcome)
	}
}

func TestMoveIdenticalDestinationRemovesSource(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "cover.jpg", "same")
	testsupport.WriteText(t, entry.Dest, "same")

	outcome := single(t, engine(artifact.ModeMove, true), entry)
	if outcome.Status != artifact.StatusUnchanged {
		t.Fatalf("expected unchanged, got %+v", outcome)
	}
	if testsupport.Exists(t, entry.Artifact.Path) {
		t.Fatal("identical source should be removed in move mode")
	}
}

func TestMoveOntoItselfKeepsSource(t *testing.T) {
	for _, mode := range []artifact.Mode{artifact.ModeMove, artifact.ModeCopy} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t)
			entry := f.entry(t, "cover.jpg", "only copy")
			entry.Dest = entry.Artifact.Path

			outcome := single(t, engine(mode, true), entry)
			if outcome.Status != artifact.StatusUnchanged || outcome.Err != nil {
				t.Fatalf("expected unchanged, got %+v", outcome)
			}
			if got := testsupport.ReadText(t, entry.Artifact.Path); got != "only copy" {
				t.Fatalf("source content changed to %q", got)
			}
		})
	}
}

func TestMoveOntoLinkToSourceKeepsSource(t *testing.T) {
	tests := []struct {
		name string
		link func(src, dst string) error
	}{
		{name: "symlink", link: os.Symlink},
		{name: "hardlink", link: os.Link},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			entry := f.entry(t, "cover.jpg", "only copy")
			if err := os.MkdirAll(filepath.Dir(entry.Dest), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			if err := tt.link(entry.Artifact.Path, entry.Dest); err != nil {
				t.Fatalf("link: %v", err)
			}

			outcome := single(t, engine(artifact.ModeMove, true), entry)
			if outcome.Status != artifact.StatusUnchanged || outcome.Err != nil {
				t.Fatalf("expected unchanged, got %+v", outcome)
			}
			if got := testsupport.ReadText(t, entry.Artifact.Path); got != "only copy" {
				t.Fatalf("source content changed to %q", got)
			}
			if got := testsupport.ReadText(t, entry.Dest); got != "only copy" {
				t.Fatalf("destination no longer resolves, got %q", got)
			}
		})
	}
}

func TestMoveWithoutDeletingOriginals(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "cover.jpg", "keep me")

	outcome := single(t, engine(artifact.ModeMove, false), entry)
	if outcome.Status != artifact.StatusTransferred {
		t.Fatalf("expected transfer, got %+v", outcome)
	}
	if !testsupport.Exists(t, entry.Artifact.Path) {
		t.Fatal("source must be kept when delete_originals_on_move is false")
	}
	if got := testsupport.ReadText(t, entry.Dest); got != "keep me" {
		t.Fatalf("unexpected destination content %q", got)
	}
}

func TestMissingSourceWithoutDestinationFails(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "gone.txt", "x")
	if err := os.Remove(entry.Artifact.Path); err != nil {
		t.Fatal(err)
	}

	outcome := single(t, engine(artifact.ModeCopy, true), entry)
	if outcome.Status != artifact.StatusFailed || outcome.Kind != services.KindTransferIO {
		t.Fatalf("expected io failure, got %+v", outcome)
	}
}

func TestLinkModes(t *testing.T) {
	for _, mode := range []artifact.Mode{artifact.ModeSymlink, artifact.ModeHardlink} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t)
			entry := f.entry(t, "sub/booklet.pdf", "pdf")
			e := engine(mode, true)

			if outcome := single(t, e, entry); outcome.Status != artifact.StatusTransferred {
				t.Fatalf("expected link created, got %+v", outcome)
			}
			info, err := os.Lstat(entry.Dest)
			if err != nil {
				t.Fatal(err)
			}
			isSymlink := info.Mode()&os.ModeSymlink != 0
			if isSymlink != (mode == artifact.ModeSymlink) {
				t.Fatalf("unexpected link type: mode %v", info.Mode())
			}
			if outcome := single(t, e, entry); outcome.Status != artifact.StatusUnchanged {
				t.Fatalf("expected existing link to count as unchanged, got %+v", outcome)
			}
		})
	}
}

func TestLinkOverForeignFileIsConflict(t *testing.T) {
	f := newFixture(t)
	entry := f.entry(t, "cover.jpg", "a")
	testsupport.WriteText(t, entry.Dest, "a")

	outcome := single(t, engine(artifact.ModeSymlink, true), entry)
	if outcome.Kind != services.KindTransferConflict {
		t.Fatalf("expected conflict, got %+v", outcome)
	}
}

func TestFailuresDoNotStopLaterEntries(t *testing.T) {
	f := newFixture(t)
	conflict := f.entry(t, "a.txt", "new")
	testsupport.WriteText(t, conflict.Dest, "old")
	ok := f.entry(t, "b.txt", "fine")

	outcomes := engine(artifact.ModeCopy, true).Execute(context.Background(), []artifact.Entry{conflict, ok})
	if outcomes[0].Status != artifact.StatusFailed || outcomes[1].Status != artifact.StatusTransferred {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestCancellationMarksRemainingEntries(t *testing.T) {
	f := newFixture(t)
	first := f.entry(t, "a.txt", "a")
	second := f.entry(t, "b.txt", "b")
	third := f.entry(t, "c.txt", "c")

	ctx, cancel := context.WithCancel(context.Background())
	var observed []artifact.Status
	e := transfer.NewEngine(transfer.Options{
		Mode: artifact.ModeCopy,
		Observer: func(o artifact.Outcome) {
			observed = append(observed, o.Status)
			cancel()
		},
	}, logging.NewNop())

	outcomes := e.Execute(ctx, []artifact.Entry{first, second, third})
	want := []artifact.Status{artifact.StatusTransferred, artifact.StatusCanceled, artifact.StatusCanceled}
	for i, outcome := range outcomes {
		if outcome.Status != want[i] {
			t.Fatalf("entry %d: got %s want %s", i, outcome.Status, want[i])
		}
	}
	if outcomes[1].Kind != services.KindCanceled || !errors.Is(outcomes[1].Err, context.Canceled) {
		t.Fatalf("unexpected canceled outcome %+v", outcomes[1])
	}
	if len(observed) != 3 {
		t.Fatalf("observer should see every entry, saw %d", len(observed))
	}
	if testsupport.Exists(t, second.Dest) {
		t.Fatal("canceled entry must not be transferred")
	}
}

func TestDefaultModeIsCopy(t *testing.T) {
	if got := transfer.NewEngine(transfer.Options{}, nil).Mode(); got != artifact.ModeCopy {
		t.Fatalf("expected copy, got %q", got)
	}
}
