package msgs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedRoundTrip(t *testing.T) {
	typed, err := TypedFrom(NewCommandErrFromMsg("device busy"))
	require.NoError(t, err)
	require.True(t, typed.IsCommand())
	typed.Sequence = 9

	data, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, CommandErrTypeID, decoded.TypeId)
	require.Equal(t, uint32(9), decoded.Sequence)

	msg, err := decoded.Decode()
	require.NoError(t, err)
	cmdErr, ok := msg.(*CommandErr)
	require.True(t, ok)
	require.Equal(t, "device busy", cmdErr.Error())
}

func TestTypedUnknown(t *testing.T) {
	typed := Typed{Envelope: Envelope{TypeId: GroupCustom | 0x7777}}
	_, err := typed.Decode()
	var unknown *ErrUnknownType
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, GroupCustom|0x7777, unknown.TypeID)
}

func TestTypedKind(t *testing.T) {
	require.True(t, Typed{Envelope: Envelope{TypeId: TypeIDKindEvent | 1}}.IsEvent())
	require.False(t, Typed{Envelope: Envelope{TypeId: 1}}.IsEvent())
	_, err := TypedFrom(nil)
	require.Equal(t, ErrNotSerializable, err)
}
