package task

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kingrea/ctxlayer/internal/active"
	"github.com/kingrea/ctxlayer/internal/config"
	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/linker"
	"github.com/kingrea/ctxlayer/internal/store"
)

type harness struct {
	cfg       *config.Config
	domains   *store.Store
	links     *linker.Linker
	selection *active.Store
	factory   *Factory
}

func newHarness(t *testing.T) harness {
	t.Helper()
	cfg, err := config.New(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := harness{
		cfg:       cfg,
		domains:   store.New(cfg.StoreRoot(), nil),
		links:     linker.New(cfg.LocalDir(), cfg.StoreRoot()),
		selection: active.NewStore(cfg),
	}
	h.factory = NewFactory(h.domains, h.links, h.selection)
	if err := os.MkdirAll(h.domains.DomainPath("proj-a"), 0o755); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestCreateCommitsAllSteps(t *testing.T) {
	h := newHarness(t)
	created, err := h.factory.Create("proj-a", "t1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Path != h.domains.TaskPath("proj-a", "t1") {
		t.Fatalf("task path = %s", created.Path)
	}
	for _, sub := range Layout {
		if _, err := os.Stat(filepath.Join(created.Path, sub)); err != nil {
			t.Fatalf("missing %s: %v", sub, err)
		}
	}
	tasks, err := h.domains.ListTasks("proj-a")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tasks, []string{"t1"}) {
		t.Fatalf("ListTasks = %v, want [t1]", tasks)
	}
	target, err := os.Readlink(h.links.LinkPath("proj-a", "t1"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != created.Path {
		t.Fatalf("link target = %s, want %s", target, created.Path)
	}
	sel, err := h.selection.Read()
	if err != nil {
		t.Fatal(err)
	}
	if sel != (active.Selection{Domain: "proj-a", Task: "t1"}) {
		t.Fatalf("selection = %+v", sel)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	if _, err := h.factory.Create("missing", "t1"); !errors.Is(err, ctxerr.ErrNotFound) {
		t.Fatalf("missing domain = %v, want ErrNotFound", err)
	}
	if _, err := h.factory.Create("proj-a", ""); !errors.Is(err, ctxerr.ErrEmptyName) {
		t.Fatalf("empty name = %v, want ErrEmptyName", err)
	}
	if _, err := h.factory.Create("proj-a", "t1"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.factory.Create("proj-a", "t1"); !errors.Is(err, ctxerr.ErrAlreadyExists) {
		t.Fatalf("duplicate = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateAgainstPartialDirectoryFails(t *testing.T) {
	h := newHarness(t)
	partial := h.domains.TaskPath("proj-a", "half")
	if err := os.Mkdir(partial, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := h.factory.Create("proj-a", "half"); !errors.Is(err, ctxerr.ErrAlreadyExists) {
		t.Fatalf("partial task = %v, want ErrAlreadyExists", err)
	}
	if _, err := os.Stat(h.cfg.ActiveConfigPath()); !os.IsNotExist(err) {
		t.Fatalf("selection must not be written on failure")
	}
}

type failingLinker struct{}

func (failingLinker) EnsureTaskLink(string, string) (bool, error) {
	return false, errors.New("disk full")
}

func TestCreateLinkFailureKeepsDirectory(t *testing.T) {
	h := newHarness(t)
	factory := NewFactory(h.domains, failingLinker{}, h.selection)
	_, err := factory.Create("proj-a", "t1")
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Failed != StepLink || !reflect.DeepEqual(stepErr.Committed, []Step{StepDirectory}) {
		t.Fatalf("unexpected step error %+v", stepErr)
	}
	if !h.domains.TaskExists("proj-a", "t1") {
		t.Fatalf("directory step is not rolled back")
	}
	if _, err := os.Stat(h.cfg.ActiveConfigPath()); !os.IsNotExist(err) {
		t.Fatalf("selection must not be written after link failure")
	}
}
