package instrument

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/mockstore"
	"github.com/roach88/vexharness/internal/testutil"
)

// TestQuota_WithinLimit tests normal operation within the limit.
func TestQuota_WithinLimit(t *testing.T) {
	rec, _ := newRecorder()
	rec.MaxEvents = 3

	for i := 0; i < 3; i++ {
		_, err := rec.Act(spinSig, []ir.IRValue{motor1, reverse, ir.IRInt(int64(i))})
		assert.NoError(t, err, "event %d should be allowed", i+1)
	}
	assert.Equal(t, 3, rec.Log.Len())
}

// TestQuota_ExceedsLimit tests the error on the first call past the limit.
func TestQuota_ExceedsLimit(t *testing.T) {
	rec, out := newRecorder()
	rec.MaxEvents = 2

	for i := 0; i < 2; i++ {
		_, err := rec.Act(spinSig, []ir.IRValue{motor1, reverse, ir.IRInt(99)})
		require.NoError(t, err)
	}
	out.Reset()

	_, err := rec.Act(spinSig, []ir.IRValue{motor1, reverse, ir.IRInt(99)})
	require.Error(t, err)
	assert.True(t, IsEventLimitError(err))

	var limitErr *EventLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "Motor.spin", limitErr.Method)
	assert.Equal(t, 3, limitErr.Events)
	assert.Equal(t, 2, limitErr.Limit)
	assert.Equal(t, "Motor.spin: event limit exceeded: 3 events > 2 limit", err.Error())

	assert.Equal(t, 2, rec.Log.Len(), "recorded events are kept")
	assert.Empty(t, out.String(), "rejected calls print nothing")
}

// TestQuota_SenseDoesNotConsumeInput tests that a rejected sensing leaves
// the interactive stream untouched.
func TestQuota_SenseDoesNotConsumeInput(t *testing.T) {
	rec, _ := newRecorder()
	rec.MaxEvents = 1
	rec.Interactive = true
	rec.In = testutil.ScriptedInput("1", "2")

	v, err := rec.Sense(headingSig, nil, []ir.IRValue{inertial})
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(1), v)

	_, err = rec.Sense(headingSig, nil, []ir.IRValue{inertial})
	require.True(t, IsEventLimitError(err))

	line, err := rec.In.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "2\n", line)
}

// TestQuota_ZeroIsUnlimited tests the default.
func TestQuota_ZeroIsUnlimited(t *testing.T) {
	rec, _ := newRecorder()

	for i := 0; i < 50; i++ {
		_, err := rec.Act(spinSig, []ir.IRValue{motor1, reverse, ir.IRInt(int64(i))})
		require.NoError(t, err, fmt.Sprintf("event %d", i))
	}
	assert.Equal(t, 50, rec.Log.Len())
}

// TestQuota_InstallIsNotCounted tests that set= calls do not use quota.
func TestQuota_InstallIsNotCounted(t *testing.T) {
	rec, _ := newRecorder()
	rec.MaxEvents = 1
	store := mockstore.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Install(capacitySig, store, []ir.IRValue{battery}, ir.IRInt(int64(i))))
	}
	v, err := rec.Sense(capacitySig, store, []ir.IRValue{battery})
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(2), v)
}
