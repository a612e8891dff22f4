package coupling

import (
	"math"
	"testing"

	"github.com/precice-go/precice/internal/mesh"
)

func newTestData(order ExtrapolationOrder, values ...float64) *Data {
	md := &mesh.Data{Name: "test", Dimension: 1}
	md.Values = append([]float64(nil), values...)
	md.OldValues = make([]float64, len(values))
	return New(1, md, order)
}

func TestRelativeL2ChangeZeroWhenUnchanged(t *testing.T) {
	d := newTestData(NoExtrapolation, 1, 2, 3)
	copy(d.MeshData.OldValues, d.MeshData.Values)
	if got := d.RelativeL2Change(); got != 0 {
		t.Errorf("RelativeL2Change = %v, want 0", got)
	}
}

func TestRelativeL2ChangeFromZeroBaseline(t *testing.T) {
	d := newTestData(NoExtrapolation, 1, 0, 0)
	if got := d.RelativeL2Change(); got != 1 {
		t.Errorf("RelativeL2Change with zero old values = %v, want 1", got)
	}
}

func TestRelativeL2ChangeProportional(t *testing.T) {
	d := newTestData(NoExtrapolation, 4)
	d.MeshData.OldValues[0] = 3
	want := 1.0 / 3.0
	if got := d.RelativeL2Change(); math.Abs(got-want) > 1e-12 {
		t.Errorf("RelativeL2Change = %v, want %v", got, want)
	}
}

func TestStoreAndRestoreIterationCheckpoint(t *testing.T) {
	d := newTestData(NoExtrapolation, 1, 2)
	d.StoreIterationCheckpoint()
	d.MeshData.Values[0] = 99
	d.RestoreIterationCheckpoint()
	if d.MeshData.Values[0] != 1 {
		t.Errorf("RestoreIterationCheckpoint: Values[0] = %v, want 1", d.MeshData.Values[0])
	}
}

func TestCompleteWindowNoExtrapolationLeavesValues(t *testing.T) {
	d := newTestData(NoExtrapolation, 5)
	d.CompleteWindow()
	if d.Values()[0] != 5 {
		t.Errorf("Values()[0] = %v, want 5 (no extrapolation)", d.Values()[0])
	}
}

func TestCompleteWindowLinearExtrapolation(t *testing.T) {
	d := newTestData(Linear, 0)
	d.CompleteWindow() /* first window: no history yet, no change */
	d.MeshData.Values[0] = 2
	d.CompleteWindow() /* predicted = 2*2 - 0 = 4 */
	if got := d.Values()[0]; got != 4 {
		t.Errorf("linear extrapolation = %v, want 4", got)
	}
}

func TestCompleteWindowQuadraticExtrapolation(t *testing.T) {
	d := newTestData(Quadratic, 0)
	d.CompleteWindow() /* history: [0] */
	d.MeshData.Values[0] = 2
	d.CompleteWindow() /* one prior: linear fallback, predicted = 2*2-0=4, history: [2,0] */
	d.MeshData.Values[0] = 4
	d.CompleteWindow() /* predicted = 3*4 - 3*2 + 0 = 6 */
	if got := d.Values()[0]; got != 6 {
		t.Errorf("quadratic extrapolation = %v, want 6", got)
	}
}
