package h264

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]*ProfileLevelId{
		"42e01f": {ProfileConstrainedBaseline, Level31},
		"42e00b": {ProfileConstrainedBaseline, Level11},
		"42f00b": {ProfileConstrainedBaseline, Level1b},
		"42c02a": {ProfileConstrainedBaseline, Level42},
		"4d0032": {ProfileMain, Level5},
		"640c2a": {ProfileConstrainedHigh, Level42},
		"64002a": {ProfileHigh, Level42},
		"f4001f": {ProfilePredictiveHigh444, Level31},
	}
	for s, expected := range cases {
		assert.Equal(t, expected, Parse(s), s)
	}

	for _, invalid := range []string{"", "42e0", "42e01f00", "gggggg", "000000", "42e0ff", "650c2a"} {
		assert.Nil(t, Parse(invalid), invalid)
	}
}

func TestProfileLevelId_String(t *testing.T) {
	assert.Equal(t, "42e01f", ProfileLevelId{ProfileConstrainedBaseline, Level31}.String())
	assert.Equal(t, "42f00b", ProfileLevelId{ProfileConstrainedBaseline, Level1b}.String())
	assert.Equal(t, "640c2a", ProfileLevelId{ProfileConstrainedHigh, Level42}.String())
	assert.Equal(t, "", ProfileLevelId{ProfileHigh, Level1b}.String())
	assert.Equal(t, "", ProfileLevelId{Profile(99), Level3}.String())

	for _, s := range []string{"42e01f", "4d0032", "64002a", "42100b"} {
		assert.Equal(t, s, Parse(s).String())
	}
}

func TestIsSameProfile(t *testing.T) {
	assert.True(t, IsSameProfile("", ""))
	assert.True(t, IsSameProfile("42e01f", "42e02a"))
	assert.True(t, IsSameProfile("", "42e01f"))
	assert.False(t, IsSameProfile("42e01f", "4d0032"))
	assert.False(t, IsSameProfile("", "zzzzzz"))
}

func TestGenerateProfileLevelIdForAnswer(t *testing.T) {
	answer, err := GenerateProfileLevelIdForAnswer(Parameters{}, Parameters{})
	require.NoError(t, err)
	assert.Empty(t, answer)

	answer, err = GenerateProfileLevelIdForAnswer(
		Parameters{ProfileLevelId: "42e01f"},
		Parameters{ProfileLevelId: "42e00b"},
	)
	require.NoError(t, err)
	assert.Equal(t, "42e00b", answer, "level is downgraded without asymmetry")

	answer, err = GenerateProfileLevelIdForAnswer(
		Parameters{ProfileLevelId: "42e01f", LevelAsymmetryAllowed: 1},
		Parameters{ProfileLevelId: "42e00b", LevelAsymmetryAllowed: 1},
	)
	require.NoError(t, err)
	assert.Equal(t, "42e01f", answer)

	_, err = GenerateProfileLevelIdForAnswer(
		Parameters{ProfileLevelId: "42e01f"},
		Parameters{ProfileLevelId: "640c2a"},
	)
	assert.ErrorIs(t, err, ErrProfileMismatch)

	_, err = GenerateProfileLevelIdForAnswer(
		Parameters{ProfileLevelId: "42e01f"},
		Parameters{ProfileLevelId: "xyz"},
	)
	assert.ErrorIs(t, err, ErrInvalidProfileLevelId)
}
