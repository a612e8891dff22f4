package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/com"
	"github.com/precice-go/precice/internal/coupling"
	"github.com/precice-go/precice/internal/cplscheme"
	"github.com/precice-go/precice/internal/m2n"
)

const testConfigTemplate = `
meshes:
  - name: surface
    dimensions: 2
    data:
      - name: x
        dimension: 1
      - name: y
        dimension: 1
participants:
  - name: A
    address: "127.0.0.1:0"
    use-mesh:
      - mesh: surface
        provide: true
    write-data:
      - data: x
        mesh: surface
    read-data:
      - data: y
        mesh: surface
  - name: B
    address: "127.0.0.1:0"
    use-mesh:
      - mesh: surface
        provide: true
    write-data:
      - data: y
        mesh: surface
    read-data:
      - data: x
        mesh: surface
coupling-scheme:
  type: serial
  mode: explicit
  first-participant: A
  second-participant: B
  time-window-size: 1.0
  max-time: 2.0
logging:
  level: error
  format: console
export:
  directory: %s
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := fmt.Sprintf(testConfigTemplate, filepath.Join(dir, "export"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

/* twoConfiguredSessions builds A and B sessions against the same document,
 * each with one vertex on its own copy of "surface" and an in-process M2N
 * pair wired through a Serial explicit scheme. */
func twoConfiguredSessions(t *testing.T) (a, b *Session) {
	t.Helper()
	path := writeTestConfig(t)

	a = New("A")
	if err := a.Configure(path); err != nil {
		t.Fatalf("A.Configure: %v", err)
	}
	b = New("B")
	if err := b.Configure(path); err != nil {
		t.Fatalf("B.Configure: %v", err)
	}

	meshA, err := a.GetMeshID("surface")
	if err != nil {
		t.Fatalf("A.GetMeshID: %v", err)
	}
	meshB, err := b.GetMeshID("surface")
	if err != nil {
		t.Fatalf("B.GetMeshID: %v", err)
	}
	if _, err := a.SetMeshVertex(meshA, []float64{0, 0}); err != nil {
		t.Fatalf("A.SetMeshVertex: %v", err)
	}
	if _, err := b.SetMeshVertex(meshB, []float64{0, 0}); err != nil {
		t.Fatalf("B.SetMeshVertex: %v", err)
	}

	chA, chB := com.InMemoryPair()
	m2nA := m2n.New("A", "B", chA)
	m2nB := m2n.New("B", "A", chB)
	a.ConnectPeerChannel("B", m2nA)
	b.ConnectPeerChannel("A", m2nB)

	xA, err := a.CouplingData("surface", "x", coupling.NoExtrapolation)
	if err != nil {
		t.Fatalf("A.CouplingData(x): %v", err)
	}
	yA, err := a.CouplingData("surface", "y", coupling.NoExtrapolation)
	if err != nil {
		t.Fatalf("A.CouplingData(y): %v", err)
	}
	xB, err := b.CouplingData("surface", "x", coupling.NoExtrapolation)
	if err != nil {
		t.Fatalf("B.CouplingData(x): %v", err)
	}
	yB, err := b.CouplingData("surface", "y", coupling.NoExtrapolation)
	if err != nil {
		t.Fatalf("B.CouplingData(y): %v", err)
	}

	stateA := cplscheme.NewState("A", 1.0, 2.0, cplscheme.UndefinedTimeWindows, 0, 0)
	stateA.SendData["x"] = xA
	stateA.ReceiveData["y"] = yA
	a.BuildScheme(cplscheme.NewSerial(stateA, m2nA, true))

	stateB := cplscheme.NewState("B", 1.0, 2.0, cplscheme.UndefinedTimeWindows, 0, 0)
	stateB.ReceiveData["x"] = xB
	stateB.SendData["y"] = yB
	b.BuildScheme(cplscheme.NewSerial(stateB, m2nB, false))

	return a, b
}

func TestWriteReadArityRejectsUndeclaredData(t *testing.T) {
	a, b := twoConfiguredSessions(t)

	meshA, _ := a.GetMeshID("surface")
	yID, _ := a.GetDataID("surface", "y")
	if err := a.WriteScalarData(meshA, yID, 0, 1.0); !cerr.Is(err, cerr.Usage) {
		t.Errorf("WriteScalarData on undeclared write-data y: err = %v, want a Usage error", err)
	}
	xID, _ := a.GetDataID("surface", "x")
	if _, err := a.ReadScalarData(meshA, xID, 0); !cerr.Is(err, cerr.Usage) {
		t.Errorf("ReadScalarData on undeclared read-data x: err = %v, want a Usage error", err)
	}

	/* declared arrays still work */
	if err := a.WriteScalarData(meshA, xID, 0, 2.0); err != nil {
		t.Errorf("WriteScalarData(x) declared write-data: %v", err)
	}

	meshB, _ := b.GetMeshID("surface")
	xIDOnB, _ := b.GetDataID("surface", "x")
	if err := b.WriteScalarData(meshB, xIDOnB, 0, 1.0); !cerr.Is(err, cerr.Usage) {
		t.Errorf("B.WriteScalarData(x): err = %v, want a Usage error (x is B's read-data, not write)", err)
	}
}

func TestMeshLockEngagesAfterInitializeAndClearsOnReset(t *testing.T) {
	a, b := twoConfiguredSessions(t)
	ctx := context.Background()

	meshA, _ := a.GetMeshID("surface")

	if _, err := a.Initialize(ctx); err != nil {
		t.Fatalf("A.Initialize: %v", err)
	}
	if _, err := b.Initialize(ctx); err != nil {
		t.Fatalf("B.Initialize: %v", err)
	}

	if _, err := a.SetMeshVertex(meshA, []float64{1, 1}); !cerr.Is(err, cerr.Usage) {
		t.Errorf("SetMeshVertex after Initialize: err = %v, want a Usage error (mesh locked)", err)
	}

	if err := a.ResetMesh(meshA); err != nil {
		t.Fatalf("A.ResetMesh: %v", err)
	}
	if _, err := a.SetMeshVertex(meshA, []float64{1, 1}); err != nil {
		t.Errorf("SetMeshVertex after ResetMesh: %v", err)
	}
}

func TestInitializeDataAndAdvanceLifecycle(t *testing.T) {
	a, b := twoConfiguredSessions(t)
	ctx := context.Background()

	if _, err := a.Initialize(ctx); err != nil {
		t.Fatalf("A.Initialize: %v", err)
	}
	if _, err := b.Initialize(ctx); err != nil {
		t.Fatalf("B.Initialize: %v", err)
	}

	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() { errA <- a.InitializeData(ctx) }()
	go func() { errB <- b.InitializeData(ctx) }()
	if err := <-errA; err != nil {
		t.Fatalf("A.InitializeData: %v", err)
	}
	if err := <-errB; err != nil {
		t.Fatalf("B.InitializeData: %v", err)
	}

	meshA, _ := a.GetMeshID("surface")
	xID, _ := a.GetDataID("surface", "x")
	if err := a.WriteScalarData(meshA, xID, 0, 5.0); err != nil {
		t.Fatalf("A.WriteScalarData: %v", err)
	}

	go func() { dt, err := a.Advance(ctx, 1.0); errA <- err; _ = dt }()
	go func() { dt, err := b.Advance(ctx, 1.0); errB <- err; _ = dt }()
	if err := <-errA; err != nil {
		t.Fatalf("A.Advance: %v", err)
	}
	if err := <-errB; err != nil {
		t.Fatalf("B.Advance: %v", err)
	}

	if !a.IsTimestepComplete() {
		t.Error("A.IsTimestepComplete() = false after a full-length Advance")
	}
	if !a.IsReadDataAvailable() {
		t.Error("A.IsReadDataAvailable() = false after Advance exchanged data")
	}
	if !a.IsCouplingOngoing() {
		t.Error("A.IsCouplingOngoing() = false after window 1 of 2")
	}

	go func() { errA <- a.Finalize(true) }()
	go func() { errB <- b.Finalize(false) }()
	if err := <-errA; err != nil {
		t.Fatalf("A.Finalize: %v", err)
	}
	if err := <-errB; err != nil {
		t.Fatalf("B.Finalize: %v", err)
	}
}
