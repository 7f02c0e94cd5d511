package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spinForSig() *MethodSig {
	return &MethodSig{
		Class:   "Motor",
		Name:    "spin_for",
		Kind:    MethodAct,
		HasSelf: true,
		Params: []Param{
			{Name: "dir"},
			{Name: "rotation"},
			{Name: "rotationUnits", HasDefault: true, Default: IREnum{Type: "RotationUnits", Member: "DEG"}},
			{Name: "velocity", HasDefault: true, Default: IRNull{}},
			{Name: "velocityUnits", HasDefault: true, Default: IREnum{Type: "PercentUnits", Member: "PERCENT"}},
			{Name: "waitForCompletion", HasDefault: true, Default: IRBool(true)},
		},
	}
}

func TestMethodSigDeclaredAndDefaults(t *testing.T) {
	sig := spinForSig()

	declared := sig.Declared()
	require.Len(t, declared, 7)
	assert.Equal(t, "self", declared[0].Name)
	assert.Len(t, sig.Defaults(), 4)
	assert.Equal(t, IRNull{}, sig.Defaults()[1])
	assert.Equal(t, "Motor.spin_for", sig.Qualified())
}

func TestMethodSigQualifiedFreeFunction(t *testing.T) {
	sig := &MethodSig{Name: "wait", Kind: MethodAct}
	assert.Equal(t, "wait", sig.Qualified())
	assert.Empty(t, sig.Declared())
}

func TestMethodSigSignature(t *testing.T) {
	assert.Equal(t,
		"spin_for(self, dir, rotation, rotationUnits=RotationUnits.DEG, velocity=None, "+
			"velocityUnits=PercentUnits.PERCENT, waitForCompletion=True)",
		spinForSig().Signature())
}

func TestMethodSigValidate(t *testing.T) {
	assert.Empty(t, spinForSig().Validate())

	bad := &MethodSig{
		Name:    "broken",
		Kind:    "wiggle",
		Returns: "float",
		Params: []Param{
			{Name: "a", HasDefault: true, Default: IRInt(1)},
			{Name: "b"},
			{Name: "b", HasDefault: true, Default: IRInt(2)},
		},
	}
	errs := bad.Validate()
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "invalid kind")
	assert.Contains(t, errs[1].Error(), "follows a defaulted parameter")
	assert.Contains(t, errs[2].Error(), "duplicate parameter")
}

func TestEnumSpecMember(t *testing.T) {
	e := &EnumSpec{Name: "TurnType", Members: []string{"LEFT", "RIGHT"}}

	m, ok := e.Member("RIGHT")
	require.True(t, ok)
	assert.Equal(t, IREnum{Type: "TurnType", Member: "RIGHT"}, m)

	_, ok = e.Member("UP")
	assert.False(t, ok)
}
